package openai

// Prompt-Templates der Summarizer-Module. Platzhalter werden zur Laufzeit
// über die SummaryVars ersetzt. Beide Module müssen mit einem reinen
// JSON-Objekt mit dem Feld "summary" antworten.

const abstractSummaryPrompt = `You are an assistant for researchers reviewing scientific literature.
Summarize the following abstract of a scientific paper in {{$language}}.
Keep the summary to at most three sentences and preserve the key finding.

Abstract:
{{$abstract}}

Respond with a single JSON object of the form {"summary": "..."} and nothing else.`

const abstractSummaryFinalPrompt = `You are an assistant for researchers reviewing scientific literature.
The following is a list of summaries of paper abstracts. Condense them into
one coherent overall summary in {{$language}}, at most five sentences.

Summaries:
{{$abstract_list}}

Respond with a single JSON object of the form {"summary": "..."} and nothing else.`
