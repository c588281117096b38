package remindlib

import "errors"

var (
	ErrBlankTitle    = errors.New("reminder title must not be blank")
	ErrBlankListName = errors.New("list name must not be blank")

	ErrReminderNotFound = errors.New("reminder not found")
	ErrListNotFound     = errors.New("reminder list not found")

	ErrStoreClosed = errors.New("store is closed")

	ErrNoSoundURL = errors.New("no remote sound url to fetch")
	// ErrFetchIncomplete is reported when a source ends the stream before
	// delivering the announced number of bytes. A partial file is never
	// marked fetched.
	ErrFetchIncomplete = errors.New("sound fetch ended before the full file was received")
)
