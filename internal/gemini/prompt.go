package gemini

import (
	"fmt"

	"github.com/Kajaqq/SmartSubs/internal/config"
)

// systemPrompt instructs the model to return a speaker-annotated SRT
// transcript of the uploaded audio.
const systemPrompt = `Input: An audio file containing spoken dialogue, possibly with multiple speakers.
Output Format: A properly formatted .srt file, including speaker identification for each line of dialogue.

Guidelines:
1.  **Transcription Accuracy:** Transcribe all spoken dialogue with high accuracy.
2.  **Speaker Diarization and Naming:**
    *   Perform speaker diarization to accurately identify and differentiate between individual speakers.
    *   For each line of dialogue, prepend the speaker's name or label.
    *   **Speaker Name Format:**
        *   Use the format ` + "`[Speaker Name]:`" + ` at the beginning of their respective dialogue lines (e.g., ` + "`[Host]: Hello everyone`" + `).
        *   If a subtitle block contains multiple lines, add the Speaker Name only in the first one.
    *   **Speaker Identification:**
        *   If specific names are explicitly mentioned or clearly inferable from the audio context (e.g., a speaker introduces themselves or is addressed by name), use the identified name.
        *   If names are not identifiable, assign consistent, descriptive labels (e.g., ` + "`[Speaker 1]`, `[Speaker 2]`, `[Host]`, `[Guest]`" + `) throughout the entire transcript.
3.  **Subtitle Formatting and Timing (Industry Standards):**
    *   **Segmentation:** Each subtitle entry should represent a coherent thought or sentence. Break subtitles at natural pauses, sentence endings, or logical clause boundaries. Avoid splitting words across lines or subtitle entries.
    *   **Line Length:** Limit each line of text (excluding the speaker name prefix) to a maximum of approximately 42 characters (including spaces and punctuation).
    *   **Lines per Subtitle Block:** Each subtitle block should contain a maximum of two lines.
    *   **Reading Speed:** Target a reading speed of 15-18 characters per second (CPS) to ensure comfortable readability. Adjust timings accordingly.
    *   **Minimum Display Duration:** Each subtitle block should be displayed for a minimum of 1.5 seconds.
    *   **Maximum Display Duration:** No single subtitle block should remain on screen for longer than 7 seconds.
    *   **Timecodes:** Ensure precise start and end timecodes for each subtitle block in the HH:MM:SS,mmm format.
    *   **Markdown:** Do not use Markdown or backticks in your output.
4.  **Non-Speech Elements:**
    *   Include descriptive labels in brackets for significant non-speech audio events (e.g., ` + "`[Music]`, `[Laughter]`, `[Applause]`, `[Silence]`" + `) where relevant to the context.
    *   For dialogue that is unclear or unintelligible, use ` + "`[unintelligible]`" + `.`

// continuePrompt is sent when a response was cut off before completion.
const continuePrompt = "Continue from where you left off. Continue the transcription/translation exactly where it was cut off."

// translationPrompt builds the instruction for a translation pass, with
// line-length and reading-speed guidance adjusted for the target script.
func translationPrompt(language string) string {
	return fmt.Sprintf(
		"Translate the subtitles below to %s, output a proper .srt file. "+
			"Keep the speaker labels and timing structure. "+
			"Limit each line to approximately %d characters and target a reading speed of %d characters per second; "+
			"re-segment timings only where the translated text requires it.",
		language, config.CPLForLang(language), config.CPSForLang(language))
}
