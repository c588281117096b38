package remindcli

import (
	"github.com/remindd/remindd/common"
	"github.com/remindd/remindd/pkg/remindlib"
)

// CreateReminder creates a reminder and returns the stored record.
func (c *Client) CreateReminder(p *common.CreateReminderParams) (*remindlib.Reminder, error) {
	var r remindlib.Reminder
	if err := c.call(common.MethodReminderCreate, p, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateReminder replaces a reminder's fields.
func (c *Client) UpdateReminder(r *remindlib.Reminder) (*remindlib.Reminder, error) {
	var out remindlib.Reminder
	err := c.call(common.MethodReminderUpdate, &common.UpdateReminderParams{Reminder: *r}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReminder reads one reminder; nil when the id is unknown.
func (c *Client) GetReminder(id string) (*remindlib.Reminder, error) {
	var r *remindlib.Reminder
	err := c.call(common.MethodReminderGet, &common.ReminderIDParams{ReminderID: id}, &r)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListReminders reads a list's reminders, soonest due first.
func (c *Client) ListReminders(listID string) ([]*remindlib.Reminder, error) {
	var res common.ListRemindersResponse
	err := c.call(common.MethodReminderList, &common.ListRemindersParams{ListID: listID}, &res)
	if err != nil {
		return nil, err
	}
	return res.Reminders, nil
}

// ToggleReminder flips a reminder's completion flag.
func (c *Client) ToggleReminder(id string) (*remindlib.Reminder, error) {
	var r remindlib.Reminder
	err := c.call(common.MethodReminderToggle, &common.ReminderIDParams{ReminderID: id}, &r)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteReminder removes a reminder; unknown ids are a no-op.
func (c *Client) DeleteReminder(id string) error {
	return c.call(common.MethodReminderDelete, &common.ReminderIDParams{ReminderID: id}, nil)
}

// CreateList creates a named list.
func (c *Client) CreateList(name string) (*remindlib.ReminderList, error) {
	var l remindlib.ReminderList
	if err := c.call(common.MethodListCreate, &common.CreateListParams{Name: name}, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Lists reads all lists.
func (c *Client) Lists() ([]*remindlib.ReminderList, error) {
	var res common.ListAllResponse
	if err := c.call(common.MethodListAll, nil, &res); err != nil {
		return nil, err
	}
	return res.Lists, nil
}

// RenameList renames a list.
func (c *Client) RenameList(id, name string) error {
	return c.call(common.MethodListRename, &common.RenameListParams{ListID: id, Name: name}, nil)
}

// DeleteList removes a list and its reminders, reporting how many went
// with it.
func (c *Client) DeleteList(id string) (int, error) {
	var res common.DeleteListResponse
	err := c.call(common.MethodListDelete, &common.ListIDParams{ListID: id}, &res)
	if err != nil {
		return 0, err
	}
	return res.RemovedReminders, nil
}

// FetchSound starts a custom sound download; progress arrives via
// OnSoundEvent.
func (c *Client) FetchSound(reminderID, url string) error {
	return c.call(common.MethodSoundFetch, &common.FetchSoundParams{ReminderID: reminderID, URL: url}, nil)
}

// CancelSound aborts an in-flight sound download.
func (c *Client) CancelSound(reminderID string) error {
	return c.call(common.MethodSoundCancel, &common.ReminderIDParams{ReminderID: reminderID}, nil)
}

// Version reports the daemon build version.
func (c *Client) Version() (string, error) {
	var res common.VersionResponse
	if err := c.call(common.MethodVersion, nil, &res); err != nil {
		return "", err
	}
	return res.Version, nil
}
