package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func client(id string, emails ...string) Client {
	c := Client{ID: FlexString(id), Name: FlexString("Client " + id)}
	for _, email := range emails {
		c.Contacts = append(c.Contacts, Contact{Email: FlexString(email)})
	}
	return c
}

func TestClassifyClients(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		candidates []Client
		outcome    MatchOutcome
		reason     string
		ids        []string
	}{
		{
			name:       "single exact match resolves",
			email:      "Test@Example.com",
			candidates: []Client{client("1", "billing@example.com", "test@example.com"), client("2", "test1@example.com")},
			outcome:    MatchUnique,
			ids:        []string{"1"},
		},
		{
			name:       "two exact matches are ambiguous",
			email:      "shared@example.com",
			candidates: []Client{client("1", "shared@example.com"), client("2", "SHARED@example.com")},
			outcome:    MatchAmbiguous,
			reason:     ReasonMultipleExact,
			ids:        []string{"1", "2"},
		},
		{
			name:       "single fuzzy match never auto resolves",
			email:      "test@example.com",
			candidates: []Client{client("1", "test@example.com.au")},
			outcome:    MatchAmbiguous,
			reason:     ReasonFuzzy,
			ids:        []string{"1"},
		},
		{
			name:       "fuzzy matches query containing contact",
			email:      "ops+test@example.com",
			candidates: []Client{client("1", "test@example.com"), client("2", "other@else.com")},
			outcome:    MatchAmbiguous,
			reason:     ReasonFuzzy,
			ids:        []string{"1"},
		},
		{
			name:       "empty contact emails never match",
			email:      "nobody@example.com",
			candidates: []Client{client("1", ""), client("2")},
			outcome:    MatchNotFound,
			reason:     ReasonNotFound,
		},
		{
			name:       "no candidates",
			email:      "nobody@example.com",
			candidates: nil,
			outcome:    MatchNotFound,
			reason:     ReasonNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := ClassifyClients(tt.email, tt.candidates)
			assert.Equal(t, tt.outcome, match.Outcome)
			assert.Equal(t, tt.reason, match.Reason)

			switch tt.outcome {
			case MatchUnique:
				require.NotNil(t, match.Client)
				assert.Equal(t, tt.ids[0], match.Client.ID.String())
				assert.Empty(t, match.Candidates)
			case MatchAmbiguous:
				assert.Nil(t, match.Client)
				got := make([]string, 0, len(match.Candidates))
				for _, c := range match.Candidates {
					got = append(got, c.ID.String())
				}
				assert.Equal(t, tt.ids, got)
			default:
				assert.Nil(t, match.Client)
				assert.Empty(t, match.Candidates)
			}
		})
	}
}
