// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"text/template"
)

// PromptVersion identifies the instruction template revision. The exact
// wording is not a correctness contract, but the output shape it demands
// (one JSON object with explanation, articles, followUpQuestions) is.
const PromptVersion = "v1"

// systemPrompt is the fixed system instruction sent with every query.
const systemPrompt = "You are a helpful research assistant that provides accurate, well-formatted JSON responses about scientific literature."

// researchPromptTmpl is the user instruction template. It embeds the query
// and directs the model to answer with one JSON object matching the result
// schema, with nothing outside the object.
var researchPromptTmpl = template.Must(template.New("research").Parse(`You are a research assistant helping to answer questions using scientific evidence.

Research question: "{{.Query}}"

Provide:
1. A comprehensive narrative explanation answering the question (2-4 paragraphs).
2. 3-5 relevant scientific articles supporting the explanation. For each article:
   - id: a unique identifier
   - title: a realistic title
   - authors: 2-5 realistic author names
   - journal: the journal name
   - year: publication year (2015-2024)
   - summary: a comprehensive summary (2-3 sentences)
   - keyFindings: 2-4 key findings
   - relevanceScore: a number between 0.0 and 1.0
   - doi: optional, realistic format
3. 3-4 follow-up questions a researcher might ask next.

Respond with a single JSON object containing exactly three keys:
"explanation" (string), "articles" (array of article objects as above), and
"followUpQuestions" (array of strings). Do not include any text outside the
JSON object.

Example format:
{"explanation": "...", "articles": [{"id": "unique-id", "title": "Article Title", "authors": ["Author One", "Author Two"], "journal": "Journal Name", "year": 2023, "summary": "Brief summary of the study...", "keyFindings": ["Finding 1", "Finding 2"], "relevanceScore": 0.95, "doi": "10.1000/journal.2023.123456"}], "followUpQuestions": ["Question 1?", "Question 2?"]}`))

// renderPrompt executes the research prompt template with the given query.
func renderPrompt(query string) (string, error) {
	var buf bytes.Buffer
	if err := researchPromptTmpl.Execute(&buf, struct{ Query string }{Query: query}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
