package extractor

import "fmt"

const noActionItems = "NO ACTION ITEMS FOUND"

const summaryPrompt = `You are an AI assistant that creates concise meeting summaries.

Analyze this meeting transcript and create a brief summary (3-5 sentences) that captures:
1. Main purpose/topic of the meeting
2. Key decisions made
3. Important discussion points
4. Next steps or outcomes

Keep it professional and concise. Return only the summary.

Transcript:
%s

Summary:`

const actionItemsPrompt = `You are an AI assistant that extracts action items from meeting transcripts.

Extract every action item. For each one identify:
- What needs to be done
- Who is responsible (name or role)
- When it is due (if mentioned)

Write exactly one item per line in this format:
- Task: <what> | Owner: <who> | Deadline: <when>

If no person is responsible, write "Owner: Unassigned".
If no deadline is mentioned, write "Deadline: Not specified".
If there are NO action items, respond with exactly "NO ACTION ITEMS FOUND".
Do not add headings, numbering or commentary.

Transcript:
%s

Action Items:`

func BuildSummaryPrompt(transcript string) string {
	return fmt.Sprintf(summaryPrompt, transcript)
}

func BuildActionItemsPrompt(chunk string) string {
	return fmt.Sprintf(actionItemsPrompt, chunk)
}
