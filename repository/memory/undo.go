package memory

// undoLog records how to revert each write of a unit of work. Rollback only
// touches the rows the unit wrote.
type undoLog struct {
	ops []func()
}

func (l *undoLog) push(op func()) {
	l.ops = append(l.ops, op)
}

// revert undoes the recorded writes, newest first
func (l *undoLog) revert() {
	for i := len(l.ops) - 1; i >= 0; i-- {
		l.ops[i]()
	}
	l.ops = nil
}

func (l *undoLog) reset() {
	l.ops = nil
}

// saveRow remembers row id as it is now, or that it did not exist
func saveRow[T any](l *undoLog, rows map[int64]*T, id int64, clone func(*T) *T) {
	prev, existed := rows[id]
	if existed {
		prev = clone(prev)
	}
	l.push(func() {
		if existed {
			rows[id] = prev
		} else {
			delete(rows, id)
		}
	})
}

// saveCounter remembers the value of an id sequence
func saveCounter(l *undoLog, c *int64) {
	prev := *c
	l.push(func() { *c = prev })
}
