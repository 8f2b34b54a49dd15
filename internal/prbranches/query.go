package prbranches

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/clintrovert/prbranches/pkg/types"
)

const rowIDPrefix = "issue_"

var rowIDPattern = regexp.MustCompile(`^issue_[0-9]+$`)

// ParseRowID validates a row id of the form issue_<number>
func ParseRowID(id string) (types.PullRequestRow, error) {
	if !rowIDPattern.MatchString(id) {
		return types.PullRequestRow{}, fmt.Errorf("invalid row id %q", id)
	}
	number, err := strconv.ParseInt(strings.TrimPrefix(id, rowIDPrefix), 10, 64)
	if err != nil {
		return types.PullRequestRow{}, fmt.Errorf("invalid row id %q: %w", id, err)
	}
	return types.PullRequestRow{ID: id, Number: number}, nil
}

// BuildQuery builds one GraphQL query requesting branch fields for every row.
// Each pull request is aliased by its row id so results can be looked up by
// key. The number is the id without its issue_ prefix, interpolated as is:
// ids must come from trusted markup or be checked with ParseRowID.
func BuildQuery(repo types.Repository, rowIDs []string) string {
	var sb strings.Builder

	sb.WriteString("{\n")
	fmt.Fprintf(&sb, "\trepository(owner: %q, name: %q) {\n", repo.Owner, repo.Name)
	for _, id := range rowIDs {
		fmt.Fprintf(&sb, "\t\t%s: pullRequest(number: %s) {\n", id, strings.TrimPrefix(id, rowIDPrefix))
		sb.WriteString("\t\t\tbaseRef {id}\n")
		sb.WriteString("\t\t\theadRef {id}\n")
		sb.WriteString("\t\t\tbaseRefName\n")
		sb.WriteString("\t\t\theadRefName\n")
		sb.WriteString("\t\t\theadRepository {url}\n")
		sb.WriteString("\t\t\theadOwner: headRepositoryOwner {login}\n")
		sb.WriteString("\t\t}\n")
	}
	sb.WriteString("\t}\n")
	sb.WriteString("}")

	return sb.String()
}
