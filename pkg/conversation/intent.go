package conversation

import (
	"strings"
	"unicode"
)

type Intent string

const (
	IntentStop            Intent = "stop"
	IntentRestart         Intent = "restart"
	IntentProvideCriteria Intent = "provide_criteria"
	IntentNewCriteria     Intent = "new_criteria"
	IntentReevaluate      Intent = "reevaluate"
	IntentResultsQuestion Intent = "results_question"
	IntentProceed         Intent = "proceed"
	IntentGeneral         Intent = "general"
)

// ParseIntent accepts the intents the language model may return.
func ParseIntent(s string) (Intent, bool) {
	switch i := Intent(strings.ToLower(strings.TrimSpace(s))); i {
	case IntentProvideCriteria, IntentNewCriteria, IntentReevaluate,
		IntentResultsQuestion, IntentProceed, IntentGeneral:
		return i, true
	}
	return "", false
}

// Stop and restart are matched against the whole message. Only filler words
// may surround the command, so "check the end date" is not taken as a goodbye.
var (
	stopPhrases = []string{
		"stop", "bye", "goodbye", "good bye", "quit", "exit", "end", "end session",
		"im done", "i am done", "we are done", "thats all", "that is all", "no thanks", "cancel",
	}
	restartPhrases = []string{
		"restart", "start over", "start again", "continue", "resume", "lets continue", "begin again",
	}
	commandFillers = map[string]bool{
		"ok": true, "okay": true, "thanks": true, "thank": true, "you": true, "please": true,
		"so": true, "well": true, "then": true, "now": true, "for": true, "lets": true,
	}

	newCriteriaPhrases = []string{
		"new criteria", "different criteria", "other criteria", "change the criteria",
		"change criteria", "reset criteria", "reset the criteria", "start with new",
	}
	reevaluatePhrases = []string{
		"reevaluate", "re-evaluate", "re evaluate", "revalidate", "re-validate",
		"again with", "instead of", "change the", "update the", "make it", "set the",
	}
	resultsPhrases = []string{
		"result", "score", "why did", "why was", "why is", "passed", "failed", "fail", "explain",
	}
	proceedPhrases = []string{
		"validate", "proceed", "go ahead", "yes", "yeah", "sure", "ok", "okay", "run", "check it", "evaluate",
	}
)

func normalize(text string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r == '\'':
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func matchesCommand(text string, phrases []string) bool {
	words := strings.Fields(normalize(text))
	if len(words) == 0 {
		return false
	}
	if isPhrase(strings.Join(words, " "), phrases) {
		return true
	}
	for len(words) > 0 && commandFillers[words[0]] {
		words = words[1:]
	}
	for len(words) > 0 && commandFillers[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return len(words) > 0 && isPhrase(strings.Join(words, " "), phrases)
}

func isPhrase(s string, phrases []string) bool {
	for _, p := range phrases {
		if s == p {
			return true
		}
	}
	return false
}

// containsPhrase matches phrases at word starts, so "result" also finds "results".
func containsPhrase(text string, phrases []string) bool {
	padded := " " + normalize(text) + " "
	for _, p := range phrases {
		if strings.Contains(padded, " "+p) {
			return true
		}
	}
	return false
}

// IsStop reports whether the message asks to end the conversation.
func IsStop(text string) bool { return matchesCommand(text, stopPhrases) }

// IsRestart reports whether the message asks to reopen a closed conversation.
func IsRestart(text string) bool { return matchesCommand(text, restartPhrases) }

// KeywordIntent classifies a message without the language model. It is the
// fallback when the intent router is unavailable.
func KeywordIntent(status Status, text string) Intent {
	switch {
	case containsPhrase(text, newCriteriaPhrases):
		return IntentNewCriteria
	case status == Validated && containsPhrase(text, reevaluatePhrases):
		return IntentReevaluate
	case status == Validated && containsPhrase(text, resultsPhrases):
		return IntentResultsQuestion
	case containsPhrase(text, proceedPhrases):
		return IntentProceed
	case status == AwaitingCriteria:
		return IntentProvideCriteria
	default:
		return IntentGeneral
	}
}
