package router

import (
	"fmt"
	"strings"

	"github.com/54b3r/alertrag-go/internal/docstore"
)

// MissedAlertFormURL is the example submission link shown to the model.
const MissedAlertFormURL = "https://services.prewave.ai/adminInterface/missedAlerts/overview/form?json=" +
	"%7B%22start%22%3A%222024-03-06T08%3A00%3A00Z%22%2C%22end%22%3A%222024-03-06T09%3A22%3A00Z%22%2C%22showArchived%22%3Afalse%7D"

// RoutePromptV1 asks for exactly one task key for question.
func RoutePromptV1(question string) string {
	return fmt.Sprintf(`You are an expert at mapping questions to relevant actions. I will give you a question, the rules that map a question to an action, and you should analyse
the question to find the best fitting action given for the question. Here are the actions with their respective task keys, and what questions should route to these actions:
Action 1: If the questions asks to specifically create a new missed alert given a url, return key %s.
Action 2: If the questions asks to explain terminology or a concept or get more details on some topic, return key %s.
Action 3: If the question wants to get more information or an explanation about alerts for them, return key %s.

For your answer, ONLY return the correct task key, nothing else. Example, question = help me to create this missed alert for Hilti at url www.abc.com -> answer = %[1]s

Here is the question you should analyse: %[4]s

Answer:`, MissedAlert, QAndA, ExplainAlerts, question)
}

// AlertPromptParams parameterises the alert explanation template.
type AlertPromptParams struct {
	Question string
	Alerts   []docstore.Alert
}

// RenderAlerts formats alerts as "<title> --> <url> --> <text> --> " joined
// by " || ".
func RenderAlerts(alerts []docstore.Alert) string {
	parts := make([]string, len(alerts))
	for i, a := range alerts {
		parts[i] = fmt.Sprintf("%s --> %s --> %s --> ", a.Title, a.URL, a.Text)
	}
	return strings.Join(parts, " || ")
}

// AlertPromptV1 renders the prompt answering questions about stored alerts.
// The model cites alerts as "title, url" strings.
func AlertPromptV1(p AlertPromptParams) string {
	return fmt.Sprintf(`You are confident PrewaveBot who helps users to understand their Alerts, which is a Prewave concept refering to news articles that represent events relevant to a customer's
supply chain. Use the customer's Alerts I will give to you to answer the questions that they have about their alerts.
If you don't know the answer, just say that you don't know, don't try to make up an answer. Be confident in your answers.
Your goal is to make users feel supported and understood, ensuring they can navigate the platform's features with confidence.
Aim for responses that are clear, concise, and personalized, using no more than four sentences.

I provide the alerts in the format "ALERT_TITLE --> ALERT_URL --> ALERT_TEXT || ALERT_TITLE --> ALERT_URL --> ALERT_TEXT || ...".
Your response should contain your answer, together with an array of the alert Titles and URLs that are relevant to the question you answered
JSON format: { "answer": "your answer to question", "contextIds": ["alert_title, alert_url", "alert_title, alert_url", ...] }.

Alerts for context:
"""
%s
"""

Question about alerts: %s
Answer:`, RenderAlerts(p.Alerts), p.Question)
}

// MissedAlertPromptV1 asks the model to extract a missed-alert submission
// from question.
func MissedAlertPromptV1(question string) string {
	return fmt.Sprintf(`Help me to create a JSON object that I can use to submit a missed alert. In order to do so, you have to extract these things from the question:
1. Target type: The target type referred to. This can only be a Organization, commodity or industry.
2. The target name that is referred to. This must be present.
3. The event type that is mentioned to have occurred, this can only be partnership, theft, strike or corruption.
4. The URL that points to the website describing the alert details, this must be present.

IF you are not able to extract all the above from the question it is a failure, and you should return this JSON object and replace YOUR_ANSWER with an explanation of why the alert could not be created, as in what was missing from the question:
{ "answer": "YOUR_ANSWER", "contextIds": []}

BUT if you are able to successfully extract the info from the question, return the following JSON structure that captures your results extracted and replace YOUR_ANSWER with a sentence in human language providing a summary of the missed alert you created:
{ "answer": "YOUR_ANSWER", "contextIds": ["%s"] }

Here is the question: %s
`, MissedAlertFormURL, question)
}
