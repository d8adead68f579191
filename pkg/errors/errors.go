// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Coffer Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
// Codes follow the "area.operation.reason" layout; the reason suffix drives
// classification (IsNotFound, IsUnauthorized, ...).
type Code string

const (
	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigParseInvalidFormat   Code = "config.parse.invalid_format"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"
	CodeConfigAlreadyExists        Code = "config.write.conflict"

	CodeCLISetupFailure   Code = "cli.setup.failure"
	CodeCLIInputInvalid   Code = "cli.input.invalid"
	CodeCLIRequestFailure Code = "cli.request.failure"

	CodeClientNetworkFailure  Code = "client.request.network_failure"
	CodeClientServerFailure   Code = "client.response.server_failure"
	CodeClientResponseInvalid Code = "client.response.malformed"
	CodeClientSessionExpired  Code = "client.session.unauthorized"
	CodeClientSecretNotFound  Code = "client.secret.not_found"
	CodeClientInputInvalid    Code = "client.input.invalid"

	CodeSessionTokenMissing Code = "session.token.unauthorized"
	CodeSessionStoreFailure Code = "session.store.failure"

	CodeKeyringInvalidInput  Code = "keyring.input.invalid"
	CodeKeyringNotFound      Code = "keyring.entry.not_found"
	CodeKeyringStoreFailure  Code = "keyring.store.failure"
	CodeKeyringDeleteFailure Code = "keyring.delete.failure"
	CodeKeyringListFailure   Code = "keyring.list.failure"

	CodeStoreSecretNotFound     Code = "store.secret.not_found"
	CodeStoreUserNotFound       Code = "store.user.not_found"
	CodeStoreUserConflict       Code = "store.user.conflict"
	CodeStoreInvalidInput       Code = "store.invalid_input"
	CodeStoreDatabaseFailure    Code = "store.database.failure"
	CodeStoreBackendUnsupported Code = "store.backend.unsupported"

	CodeAuthCredentialsInvalid Code = "auth.credentials.unauthorized"
	CodeAuthTokenInvalid       Code = "auth.token.unauthorized"
	CodeAuthTokenIssueFailure  Code = "auth.token.failure"
	CodeAuthHashFailure        Code = "auth.hash.failure"

	CodeCryptoKeyInvalid  Code = "crypto.key.invalid"
	CodeCryptoSealFailure Code = "crypto.seal.failure"
	CodeCryptoOpenFailure Code = "crypto.open.failure"

	CodeServerRequestInvalid   Code = "server.request.invalid"
	CodeServerAuthUnauthorized Code = "server.auth.unauthorized"
	CodeServerAuthForbidden    Code = "server.auth.forbidden"
	CodeServerInternalFailure  Code = "server.internal.failure"
	CodeServerEntityNotFound   Code = "server.entity.not_found"
	CodeServerConfigInvalid    Code = "server.config.invalid"
	CodeServerStartFailure     Code = "server.start.failure"
	CodeServerShutdownFailure  Code = "server.shutdown.failure"
	CodeServerRateLimited      Code = "server.request.exceeded"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// FieldValue creates a structured error field.
func FieldValue(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Field is kept as the primary helper for terse callsites.
func Field(key string, value any) Attr {
	return FieldValue(key, value)
}

func FieldSecretID(value string) Attr {
	return Field("secret_id", value)
}

func FieldUserID(value string) Attr {
	return Field("user_id", value)
}

func FieldStatus(value int) Attr {
	return Field("status", value)
}

func FieldPath(value string) Attr {
	return Field("path", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeServerInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

// CodeOf returns the innermost code in the chain, or "" for plain errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsConflict(err error) bool {
	return reason(CodeOf(err)) == "conflict"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsUnauthorized(err error) bool {
	r := reason(CodeOf(err))
	return r == "unauthorized" || r == "forbidden" || r == "denied"
}

func IsRateLimited(err error) bool {
	return reason(CodeOf(err)) == "exceeded"
}

// IsSessionExpired reports whether err signals a lost or missing session.
// Callers must recover it globally instead of showing it next to a form.
func IsSessionExpired(err error) bool {
	return HasCode(err, CodeClientSessionExpired) || HasCode(err, CodeSessionTokenMissing)
}

// IsNetwork reports whether the request never produced a response.
func IsNetwork(err error) bool {
	return HasCode(err, CodeClientNetworkFailure)
}

// IsValidation reports whether err is a client-side validation failure that
// blocked a submission.
func IsValidation(err error) bool {
	return HasCode(err, CodeClientInputInvalid)
}

func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsUnauthorized(err):
		if reason(CodeOf(err)) == "forbidden" || reason(CodeOf(err)) == "denied" {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case IsRateLimited(err):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeServerInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
