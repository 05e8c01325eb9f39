package models

// All lists every table in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Event{},
		&Team{},
		&Registration{},
		&Checkpoint{},
		&Award{},
		&XPLedgerEntry{},
	}
}
