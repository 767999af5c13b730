package rpc

import (
	"strings"

	"github.com/dmitrijs2005/vanish/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var statusCodes = map[string]codes.Code{
	"not_found":         codes.NotFound,
	"permission_denied": codes.PermissionDenied,
	"already_viewed":    codes.FailedPrecondition,
	"expired":           codes.FailedPrecondition,
	"rate_limited":      codes.ResourceExhausted,
	"transient_storage": codes.Unavailable,
	"validation":        codes.InvalidArgument,
	"unauthenticated":   codes.Unauthenticated,
	"internal":          codes.Internal,
}

// ToStatus converts a service error into a gRPC status error carrying an
// ErrorInfo with the error's reason. Internal errors do not leak their
// message.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	reason := common.Code(err)
	code, ok := statusCodes[reason]
	if !ok {
		code = codes.Internal
	}

	msg := err.Error()
	if code == codes.Internal {
		msg = common.ErrorInternal.Error()
	}

	st := status.New(code, msg)
	ds, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: strings.ToUpper(reason),
		Domain: common.ErrorDomain,
	})
	if derr != nil {
		return st.Err()
	}
	return ds.Err()
}

// FromStatus rebuilds the sentinel behind a gRPC error. Errors without a
// vanish ErrorInfo are mapped by status code alone.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.GetDomain() == common.ErrorDomain {
			sentinel := common.FromCode(strings.ToLower(info.GetReason()))
			if sentinel == nil {
				return nil
			}
			return wrap(sentinel, st.Message())
		}
	}

	switch st.Code() {
	case codes.NotFound:
		return wrap(common.ErrorNotFound, st.Message())
	case codes.PermissionDenied:
		return wrap(common.ErrPermissionDenied, st.Message())
	case codes.ResourceExhausted:
		return wrap(common.ErrRateLimited, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return wrap(common.ErrTransientStorage, st.Message())
	case codes.InvalidArgument:
		return wrap(common.ErrorValidation, st.Message())
	case codes.Unauthenticated:
		return wrap(common.ErrorUnauthorized, st.Message())
	default:
		return wrap(common.ErrorInternal, st.Message())
	}
}

type remoteError struct {
	sentinel error
	msg      string
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.sentinel }

func wrap(sentinel error, msg string) error {
	if msg == "" || msg == sentinel.Error() {
		return sentinel
	}
	return &remoteError{sentinel: sentinel, msg: msg}
}
