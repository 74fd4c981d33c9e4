package expr

// exprStatus is the resolution of one subtree: the exit code that stands
// for it and whether a non-zero code is fatal for the whole expression.
type exprStatus struct {
	code    int
	checked bool
}

func (s exprStatus) checkedError() bool {
	return s.checked && s.code != 0
}

// combinePipe merges the resolutions of the two sides of a Pipe. A
// checked failure outranks an unchecked one no matter which side it sits
// on, and the right side outranks the left within the same class. A mere
// success never hides a recorded failure from the other side.
func combinePipe(left, right exprStatus) exprStatus {
	switch {
	case right.checkedError():
		return right
	case left.checkedError():
		return left
	case right.code != 0:
		return right
	default:
		return left
	}
}

// combineThen merges the resolutions of the two stages of a Then. The
// sequence resolves to the right side's status, like $? after "a; b",
// except that a checked failure from either stage is never dropped: the
// right side's wins over the left side's.
func combineThen(left, right exprStatus) exprStatus {
	switch {
	case right.checkedError():
		return right
	case left.checkedError():
		return left
	default:
		return right
	}
}
