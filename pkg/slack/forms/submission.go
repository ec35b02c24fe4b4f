package forms

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tzrikka/conduct/pkg/records"
	"github.com/tzrikka/conduct/pkg/slack"
)

var (
	rawUserIDPattern = regexp.MustCompile(`^[UW][A-Z0-9]+$`)

	// Channel bans are scoped restrictions, and negated bans aren't bans at all.
	notBanPattern = regexp.MustCompile(`\b(channel|no|not|without)\s+(a\s+)?ban(ned|s)?\b`)
	banPattern    = regexp.MustCompile(`\bperma|\bban(ned|s)?\b`)
)

// FieldError is a single validation failure in a form submission.
type FieldError struct {
	BlockID string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.BlockID, e.Message)
}

// Submission is a fully validated conduct report form.
type Submission struct {
	Metadata Metadata

	Subjects   []string
	Violation  string
	Resolution string
	Until      string
	ResolvedBy []string
}

// Parse validates the metadata and state of a submitted conduct report modal,
// in a single pass. It returns either a complete [Submission], or all the
// validation errors that were found.
func Parse(view slack.View) (Submission, []FieldError) {
	var errs []FieldError
	var s Submission

	md, err := ParseMetadata(view.PrivateMetadata)
	if err != nil {
		errs = append(errs, FieldError{BlockID: "private_metadata", Message: err.Error()})
	}
	s.Metadata = md

	state := view.State
	users, _ := state.Get(BlockSubjects, ActionUsers)
	s.Subjects = slices.Clone(users.SelectedUsers)

	left, _ := state.Get(BlockLeftUsers, ActionValue)
	for _, id := range strings.FieldsFunc(left.Value, isSeparator) {
		id = strings.ToUpper(strings.Trim(id, "<@>"))
		if !rawUserIDPattern.MatchString(id) {
			errs = append(errs, FieldError{BlockID: BlockLeftUsers, Message: fmt.Sprintf("%q is not a Slack user ID", id)})
			continue
		}
		s.Subjects = append(s.Subjects, id)
	}
	s.Subjects = dedup(s.Subjects)
	if len(s.Subjects) == 0 {
		errs = append(errs, FieldError{BlockID: BlockSubjects, Message: "select or enter at least one user"})
	}

	violation, _ := state.Get(BlockViolation, ActionValue)
	s.Violation = strings.TrimSpace(violation.Value)
	if s.Violation == "" {
		errs = append(errs, FieldError{BlockID: BlockViolation, Message: "describe what happened"})
	}

	s.Resolution = resolution(state)
	if s.Resolution == "" {
		errs = append(errs, FieldError{BlockID: BlockResolutionChoice, Message: "choose or describe a resolution"})
	}

	until, _ := state.Get(BlockBanUntil, ActionDate)
	if until.SelectedDate != "" {
		if _, err := time.Parse(records.DateLayout, until.SelectedDate); err != nil {
			errs = append(errs, FieldError{BlockID: BlockBanUntil, Message: "invalid date"})
		} else {
			s.Until = until.SelectedDate
		}
	}

	resolvers, _ := state.Get(BlockResolvedBy, ActionUsers)
	s.ResolvedBy = dedup(slices.Clone(resolvers.SelectedUsers))
	if len(s.ResolvedBy) == 0 {
		errs = append(errs, FieldError{BlockID: BlockResolvedBy, Message: "select at least one user"})
	}

	if len(errs) > 0 {
		return Submission{}, errs
	}
	return s, nil
}

// resolution prefers the custom free-text override, and otherwise
// joins all the selected values of the fixed vocabulary.
func resolution(state slack.ViewState) string {
	custom, _ := state.Get(BlockResolutionCustom, ActionValue)
	if r := strings.TrimSpace(custom.Value); r != "" {
		return r
	}

	choice, _ := state.Get(BlockResolutionChoice, ActionOptions)
	values := make([]string, 0, len(choice.SelectedOptions))
	for _, o := range choice.SelectedOptions {
		if o.Value != "" {
			values = append(values, o.Value)
		}
	}
	return strings.Join(values, ", ")
}

// Reports returns one record per subject, all sharing the same submission metadata.
func (s Submission) Reports(now time.Time, filedBy string) []records.Report {
	reports := make([]records.Report, 0, len(s.Subjects))
	for _, subject := range s.Subjects {
		reports = append(reports, records.Report{
			Time:       now.UTC(),
			FiledBy:    filedBy,
			ResolvedBy: slices.Clone(s.ResolvedBy),
			Subject:    subject,
			Violation:  s.Violation,
			Resolution: s.Resolution,
			Until:      s.Until,
			Permalink:  s.Metadata.Permalink,
		})
	}
	return reports
}

// IsBan reports whether a resolution bans the reported users from the whole
// community, either permanently or temporarily. Channel bans don't count.
func IsBan(resolution string) bool {
	r := notBanPattern.ReplaceAllString(strings.ToLower(resolution), "")
	return banPattern.MatchString(r)
}

// ResolutionLabel maps a resolution to a low-cardinality label, for metrics:
// combinations of the fixed vocabulary are listed in vocabulary order, and
// anything else (i.e. a free-text override) is labeled "custom".
func ResolutionLabel(resolution string) string {
	parts := strings.Split(resolution, ", ")
	for _, p := range parts {
		if !slices.Contains(Resolutions, p) {
			return "custom"
		}
	}

	var label []string
	for _, r := range Resolutions {
		if slices.Contains(parts, r) {
			label = append(label, r)
		}
	}
	return strings.Join(label, ", ")
}

func isSeparator(r rune) bool {
	return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == ';'
}

func dedup(ids []string) []string {
	var out []string
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
