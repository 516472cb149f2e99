// Package router picks a handling path for a question and runs the
// alert-specific flows that sit beside plain retrieval answers.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/54b3r/alertrag-go/internal/llm"
)

// Intent is the handling path chosen for a question.
type Intent int

const (
	// QAndA answers from the knowledge base. It is the fallback for any
	// label the classifier does not recognise.
	QAndA Intent = iota
	// MissedAlert builds a missed-alert submission link.
	MissedAlert
	// ExplainAlerts answers from the stored alerts.
	ExplainAlerts
	// ImageAnalysis answers a question about an attached screenshot. It is
	// chosen from the request shape, never by the classifier.
	ImageAnalysis
)

var intentLabels = map[Intent]string{
	QAndA:         "Q_AND_A",
	MissedAlert:   "MISSED_ALERT",
	ExplainAlerts: "EXPLAIN_ALERTS",
	ImageAnalysis: "IMAGE_ANALYSIS",
}

// String returns the task key used in the routing prompt.
func (i Intent) String() string {
	if s, ok := intentLabels[i]; ok {
		return s
	}
	return fmt.Sprintf("Intent(%d)", int(i))
}

// ParseIntent maps a classifier label to an Intent. Surrounding whitespace
// is ignored; anything else that is not a known key yields QAndA.
func ParseIntent(label string) Intent {
	switch strings.TrimSpace(label) {
	case "MISSED_ALERT":
		return MissedAlert
	case "EXPLAIN_ALERTS":
		return ExplainAlerts
	case "Q_AND_A":
		return QAndA
	default:
		return QAndA
	}
}

// Classifier chooses an Intent for a question.
type Classifier interface {
	Classify(ctx context.Context, question string) (Intent, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, question string) (Intent, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, question string) (Intent, error) {
	return f(ctx, question)
}

// Fixed returns a Classifier that always picks intent.
func Fixed(intent Intent) Classifier {
	return ClassifierFunc(func(context.Context, string) (Intent, error) { return intent, nil })
}

// TextCompleter is the plain-text half of the language-model client.
type TextCompleter interface {
	ChatCompletion(ctx context.Context, content string, opts ...llm.Option) (string, error)
}

const (
	// RouterTemperature keeps the label choice stable across calls.
	RouterTemperature float32 = 0.3
	routerRoleContext         = "you are good at deriving tasks from answers"
)

// LLMClassifier asks a language model for the task key.
type LLMClassifier struct {
	llm TextCompleter
}

// NewLLMClassifier returns a classifier backed by c, usually a client on the
// cheaper router model.
func NewLLMClassifier(c TextCompleter) *LLMClassifier {
	return &LLMClassifier{llm: c}
}

// Classify implements Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, question string) (Intent, error) {
	label, err := c.llm.ChatCompletion(ctx, RoutePromptV1(question),
		llm.WithRoleContext(routerRoleContext),
		llm.WithTemperature(RouterTemperature),
		llm.WithResponseFormat(llm.FormatText),
	)
	if err != nil {
		return QAndA, fmt.Errorf("router: classify: %w", err)
	}
	return ParseIntent(label), nil
}
