package filters

// BaseFilter is the contract of a membership filter: set membership with
// possible false positives and no false negatives.
type BaseFilter interface {
	Insert(element []byte) (bool, error)
	Contains(element []byte) (bool, error)
}
