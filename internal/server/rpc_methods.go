package server

import (
	"context"
	"errors"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"

	"github.com/remindd/remindd/common"
	"github.com/remindd/remindd/pkg/remindlib"
)

// Custom JSON-RPC error codes for reminder operations.
const (
	codeNotFound      = jrpc2.Code(-32001)
	codeFetchRefused  = jrpc2.Code(-32002)
	codeInvalidParams = jrpc2.Code(-32602)
)

// EmptyResult is a placeholder for methods that return no data.
type EmptyResult struct{}

// methods builds the handler map served on every connection.
func (s *Server) methods() handler.Map {
	return handler.Map{
		common.MethodReminderCreate: handler.New(s.reminderCreate),
		common.MethodReminderUpdate: handler.New(s.reminderUpdate),
		common.MethodReminderGet:    handler.New(s.reminderGet),
		common.MethodReminderList:   handler.New(s.reminderList),
		common.MethodReminderToggle: handler.New(s.reminderToggle),
		common.MethodReminderDelete: handler.New(s.reminderDelete),

		common.MethodListCreate: handler.New(s.listCreate),
		common.MethodListAll:    handler.New(s.listAll),
		common.MethodListRename: handler.New(s.listRename),
		common.MethodListDelete: handler.New(s.listDelete),

		common.MethodSoundFetch:  handler.New(s.soundFetch),
		common.MethodSoundCancel: handler.New(s.soundCancel),

		common.MethodVersion: handler.New(s.version),
	}
}

// rpcError maps domain errors onto JSON-RPC error codes.
func rpcError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, remindlib.ErrBlankTitle),
		errors.Is(err, remindlib.ErrBlankListName),
		errors.Is(err, remindlib.ErrNoSoundURL):
		return jrpc2.Errorf(codeInvalidParams, "%s", err.Error())
	case errors.Is(err, remindlib.ErrReminderNotFound),
		errors.Is(err, remindlib.ErrListNotFound):
		return jrpc2.Errorf(codeNotFound, "%s", err.Error())
	case errors.Is(err, remindlib.ErrUnsupportedSoundScheme):
		return jrpc2.Errorf(codeFetchRefused, "%s", err.Error())
	default:
		return err
	}
}

func (s *Server) reminderCreate(_ context.Context, p *common.CreateReminderParams) (*remindlib.Reminder, error) {
	r, err := s.coord.CreateReminder(*p)
	return r, rpcError(err)
}

func (s *Server) reminderUpdate(_ context.Context, p *common.UpdateReminderParams) (*remindlib.Reminder, error) {
	r, err := s.coord.UpdateReminder(&p.Reminder)
	return r, rpcError(err)
}

// reminderGet returns null for an unknown id rather than an error, so a
// client polling a just-deleted reminder degrades quietly.
func (s *Server) reminderGet(_ context.Context, p *common.ReminderIDParams) (*remindlib.Reminder, error) {
	r, err := s.coord.GetReminder(p.ReminderID)
	return r, rpcError(err)
}

func (s *Server) reminderList(_ context.Context, p *common.ListRemindersParams) (*common.ListRemindersResponse, error) {
	reminders, err := s.coord.RemindersForList(p.ListID)
	if err != nil {
		return nil, rpcError(err)
	}
	return &common.ListRemindersResponse{Reminders: reminders}, nil
}

func (s *Server) reminderToggle(_ context.Context, p *common.ReminderIDParams) (*remindlib.Reminder, error) {
	r, err := s.coord.ToggleCompletion(p.ReminderID)
	return r, rpcError(err)
}

func (s *Server) reminderDelete(_ context.Context, p *common.ReminderIDParams) (*EmptyResult, error) {
	if err := s.coord.DeleteReminder(p.ReminderID); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (s *Server) listCreate(_ context.Context, p *common.CreateListParams) (*remindlib.ReminderList, error) {
	l, err := s.coord.CreateList(p.Name)
	return l, rpcError(err)
}

func (s *Server) listAll(_ context.Context) (*common.ListAllResponse, error) {
	lists, err := s.coord.Lists()
	if err != nil {
		return nil, rpcError(err)
	}
	return &common.ListAllResponse{Lists: lists}, nil
}

func (s *Server) listRename(_ context.Context, p *common.RenameListParams) (*EmptyResult, error) {
	if err := s.coord.RenameList(p.ListID, p.Name); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (s *Server) listDelete(_ context.Context, p *common.ListIDParams) (*common.DeleteListResponse, error) {
	removed, err := s.coord.DeleteList(p.ListID)
	if err != nil {
		return nil, rpcError(err)
	}
	return &common.DeleteListResponse{RemovedReminders: removed}, nil
}

func (s *Server) soundFetch(_ context.Context, p *common.FetchSoundParams) (*EmptyResult, error) {
	if err := s.coord.FetchSound(p.ReminderID, p.URL); err != nil {
		return nil, rpcError(err)
	}
	return &EmptyResult{}, nil
}

func (s *Server) soundCancel(_ context.Context, p *common.ReminderIDParams) (*EmptyResult, error) {
	s.coord.CancelSoundFetch(p.ReminderID)
	return &EmptyResult{}, nil
}

func (s *Server) version(_ context.Context) (*common.VersionResponse, error) {
	return &common.VersionResponse{Version: s.buildVersion}, nil
}
