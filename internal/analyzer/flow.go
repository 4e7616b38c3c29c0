package analyzer

import (
	"regexp"
	"strings"
)

var (
	casePattern       = regexp.MustCompile(`case\s+([^:]+):`)
	ternaryPattern    = regexp.MustCompile(`\?[^:;{}]+:`)
	nullCheckPattern  = regexp.MustCompile(`[!=]=\s*null|null\s*[!=]=`)
	emptyCheckPattern = regexp.MustCompile(`\.isEmpty\s*\(|\.isBlank\s*\(`)
	throwPattern      = regexp.MustCompile(`throw\s+new\s+([A-Za-z_$][\w$]*)`)
	catchPattern      = regexp.MustCompile(`catch\s*\(\s*(?:final\s+)?([A-Za-z_$][\w$]*)`)
	depCallPattern    = regexp.MustCompile(`\b([A-Za-z_$][\w$]*)\.([a-z][\w$]*)\s*\(`)
)

// asyncMarkerTokens and transactionMarkerTokens are matched as plain
// substrings, annotations included.
var asyncMarkerTokens = []string{"@Async", "@Scheduled", "CompletableFuture"}

var transactionMarkerTokens = []string{"@Transactional", "TransactionTemplate"}

// language keywords that depCallPattern would otherwise mistake for
// receivers or calls.
var flowScanKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "new": true, "this": true, "super": true, "throw": true,
}

// analyzeFlow attaches a FlowFact and RawBody to every method of the unit.
// Shared by both extractor implementations: the body scan is textual either
// way, only signature recovery differs between them.
func analyzeFlow(unit *SourceUnit) {
	prevEnd := 0
	for i := range unit.Methods {
		m := &unit.Methods[i]

		end := MatchBrace(unit.Text, m.BodyStart)
		if end < 0 {
			end = len(unit.Text)
			if i+1 < len(unit.Methods) {
				end = unit.Methods[i+1].Start
			}
		}
		if m.BodyStart >= m.Start && m.BodyStart <= end {
			m.RawBody = unit.Text[m.BodyStart:end]
		}
		// markers live in annotations above the signature, so the marker
		// scan starts where the previous method ended. A method nested in
		// the previous one's body (anonymous or local class) starts before
		// that end; its marker scan starts at its own signature instead.
		markerStart := prevEnd
		if markerStart > m.Start {
			markerStart = m.Start
		}
		m.Flow = scanFlow(unit.Text[m.Start:end], unit.Text[markerStart:end])
		if end > prevEnd {
			prevEnd = end
		}
	}
}

func scanFlow(span, markerSpan string) *FlowFact {
	f := &FlowFact{}

	f.Conditions = ifConditions(span)
	for _, c := range casePattern.FindAllStringSubmatch(span, -1) {
		f.SwitchCases = append(f.SwitchCases, strings.TrimSpace(c[1]))
	}
	f.TernaryCount = len(ternaryPattern.FindAllString(span, -1))
	f.NullCheckCount = len(nullCheckPattern.FindAllString(span, -1))
	f.EmptinessCheckCount = len(emptyCheckPattern.FindAllString(span, -1))

	for _, t := range throwPattern.FindAllStringSubmatch(span, -1) {
		f.ThrownExceptions = append(f.ThrownExceptions, t[1])
	}
	for _, c := range catchPattern.FindAllStringSubmatch(span, -1) {
		f.CaughtExceptions = append(f.CaughtExceptions, c[1])
	}

	for _, call := range depCallPattern.FindAllStringSubmatch(span, -1) {
		recv, method := call[1], call[2]
		if flowScanKeywords[recv] {
			continue
		}
		f.DependencyCalls = append(f.DependencyCalls, DependencyCall{
			Receiver: recv,
			Method:   method,
			Kind:     classifyCall(recv),
		})
	}

	for _, tok := range asyncMarkerTokens {
		if strings.Contains(markerSpan, tok) {
			f.AsyncMarkers = append(f.AsyncMarkers, tok)
		}
	}
	for _, tok := range transactionMarkerTokens {
		if strings.Contains(markerSpan, tok) {
			f.TransactionMarkers = append(f.TransactionMarkers, tok)
		}
	}
	return f
}

// ifConditions collects the parenthesized condition of every if statement,
// balancing nested parentheses so call chains inside the condition survive.
func ifConditions(span string) []string {
	var out []string
	for i := 0; i+2 < len(span); i++ {
		if span[i] != 'i' || span[i+1] != 'f' {
			continue
		}
		if i > 0 && isIdentChar(span[i-1]) {
			continue
		}
		j := i + 2
		for j < len(span) && (span[j] == ' ' || span[j] == '\t' || span[j] == '\n') {
			j++
		}
		if j >= len(span) || span[j] != '(' {
			continue
		}
		depth := 0
		for k := j; k < len(span); k++ {
			switch span[k] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					out = append(out, strings.TrimSpace(span[j+1:k]))
					i = k
					k = len(span)
				}
			}
		}
	}
	return out
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// classifyCall buckets a call by receiver shape. Collaborator fields follow
// Spring naming conventions often enough that the suffix is a usable hint;
// a capitalized receiver is read as a static call on a type.
func classifyCall(receiver string) string {
	switch {
	case strings.HasSuffix(receiver, "Repository"), strings.HasSuffix(receiver, "Dao"),
		strings.HasSuffix(receiver, "repository"), strings.HasSuffix(receiver, "dao"):
		return "repository"
	case strings.HasSuffix(receiver, "Service"), strings.HasSuffix(receiver, "service"):
		return "service"
	case strings.HasSuffix(receiver, "Client"), strings.HasSuffix(receiver, "client"),
		strings.HasSuffix(receiver, "Api"), strings.HasSuffix(receiver, "api"):
		return "client"
	case receiver[0] >= 'A' && receiver[0] <= 'Z':
		return "static"
	default:
		return "collaborator"
	}
}

func (e *regexExtractor) AnalyzeFlow(unit *SourceUnit) {
	analyzeFlow(unit)
}
