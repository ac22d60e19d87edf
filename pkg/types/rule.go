package types

// RuleAction is what an operator rule does with a column header.
type RuleAction string

const (
	ActionIgnoreColumn RuleAction = "IGNORE_COLUMN"
	ActionPickColumn   RuleAction = "PICK_COLUMN"
)

// Valid reports whether a is a known action.
func (a RuleAction) Valid() bool {
	return a == ActionIgnoreColumn || a == ActionPickColumn
}

// Rule is an operator override. Keyword is matched case-insensitively as a
// substring of the document filename.
type Rule struct {
	Keyword string     `json:"keyword" yaml:"keyword" csv:"Keyword"`
	Field   Field      `json:"field" yaml:"field" csv:"Field"`
	Action  RuleAction `json:"action" yaml:"action" csv:"Action"`
	Value   string     `json:"value" yaml:"value" csv:"Value"`
}
