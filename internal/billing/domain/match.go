package domain

import "strings"

type MatchOutcome string

const (
	MatchUnique    MatchOutcome = "unique"
	MatchAmbiguous MatchOutcome = "ambiguous"
	MatchNotFound  MatchOutcome = "not_found"
)

const (
	ReasonMultipleExact = "Multiple clients found with this email"
	ReasonFuzzy         = "Multiple similar clients found"
	ReasonNotFound      = "No client found with this email"
)

// ClientMatch is the result of resolving an email to a client. Exactly one
// of Client (unique) or Candidates (ambiguous) is set; neither for not found.
type ClientMatch struct {
	Outcome    MatchOutcome
	Client     *Client
	Candidates []Client
	Reason     string
}

// ClassifyClients picks the client for email among search results.
// A single exact contact match resolves; several exact matches are
// ambiguous; substring matches in either direction are always ambiguous.
func ClassifyClients(email string, candidates []Client) ClientMatch {
	query := strings.ToLower(strings.TrimSpace(email))

	var exact []Client
	for _, client := range candidates {
		if hasContact(client, func(contact string) bool { return contact != "" && contact == query }) {
			exact = append(exact, client)
		}
	}
	switch {
	case len(exact) == 1:
		client := exact[0]
		return ClientMatch{Outcome: MatchUnique, Client: &client}
	case len(exact) > 1:
		return ClientMatch{Outcome: MatchAmbiguous, Candidates: exact, Reason: ReasonMultipleExact}
	}

	var fuzzy []Client
	if query != "" {
		for _, client := range candidates {
			if hasContact(client, func(contact string) bool {
				return contact != "" && (strings.Contains(contact, query) || strings.Contains(query, contact))
			}) {
				fuzzy = append(fuzzy, client)
			}
		}
	}
	if len(fuzzy) > 0 {
		return ClientMatch{Outcome: MatchAmbiguous, Candidates: fuzzy, Reason: ReasonFuzzy}
	}

	return ClientMatch{Outcome: MatchNotFound, Reason: ReasonNotFound}
}

func hasContact(client Client, match func(string) bool) bool {
	for _, contact := range client.Contacts {
		if match(strings.ToLower(strings.TrimSpace(contact.Email.String()))) {
			return true
		}
	}
	return false
}
