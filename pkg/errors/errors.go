// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ResearchVault Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeStoreProjectNotFound      Code = "store.project.get.not_found"
	CodeStoreBranchNotFound       Code = "store.branch.get.not_found"
	CodeStoreParentBranchNotFound Code = "store.branch.parent.not_found"
	CodeStoreFindingNotFound      Code = "store.finding.get.not_found"
	CodeStoreHypothesisNotFound   Code = "store.hypothesis.get.not_found"
	CodeStoreMissionNotFound      Code = "store.mission.get.not_found"
	CodeStoreArtifactNotFound     Code = "store.artifact.get.not_found"
	CodeStoreWatchTargetNotFound  Code = "store.watch.get.not_found"
	CodeStoreLinkEndpointNotFound Code = "store.link.endpoint.not_found"
	CodeStoreArtifactPathInvalid  Code = "store.artifact.path.invalid_input"
	CodeStoreInvalidInput         Code = "store.invalid_input"
	CodeStoreDatabaseBusy         Code = "store.database.busy"
	CodeStoreDatabaseFailure      Code = "store.database.failure"
	CodeStoreMigrationFailure     Code = "store.migration.failure"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeSecretInvalidInput  Code = "secret.invalid_input"
	CodeSecretNotFound      Code = "secret.not_found"
	CodeSecretStoreFailure  Code = "secret.store.failure"
	CodeSecretDeleteFailure Code = "secret.delete.failure"

	CodeSearchQueryInvalid              Code = "search.query.invalid_input"
	CodeSearchProviderUnknown           Code = "search.provider.not_found"
	CodeSearchProviderCredentialMissing Code = "search.provider.credential_missing"
	CodeSearchProviderNotConfigured     Code = "search.provider.not_configured"
	CodeSearchProviderUpstreamFailure   Code = "search.provider.upstream.failure"
	CodeSearchAllProvidersFailed        Code = "search.routing.all_failed"

	CodeIngestNoConnector  Code = "ingest.connector.not_found"
	CodeIngestFetchFailure Code = "ingest.fetch.failure"

	CodeMissionPlanFailure Code = "mission.plan.failure"
	CodeMissionRunFailure  Code = "mission.run.failure"

	CodeCLIInputInvalid Code = "cli.input.invalid"
	CodeCLISetupFailure Code = "cli.setup.failure"

	CodeInternalFailure Code = "internal.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldProjectID(value string) Attr {
	return Field("project_id", value)
}

func FieldBranch(value string) Attr {
	return Field("branch", value)
}

func FieldProvider(value string) Attr {
	return Field("provider", value)
}

func FieldMissionID(value string) Attr {
	return Field("mission_id", value)
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
		code = CodeInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

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

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value"
}

// IsCredentialMissing reports whether a search provider requires an API key
// that is not configured. Recoverable by configuration, not by retry.
func IsCredentialMissing(err error) bool {
	return reason(CodeOf(err)) == "credential_missing"
}

// IsNotConfigured reports whether a search provider requires non-secret
// configuration (e.g. a base URL) that is absent.
func IsNotConfigured(err error) bool {
	return reason(CodeOf(err)) == "not_configured"
}

// IsContention reports whether a storage operation exhausted its lock-busy
// retries.
func IsContention(err error) bool {
	return reason(CodeOf(err)) == "busy"
}

func IsUpstreamFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "failure"
}

func Join(errs ...error) error {
	return oops.Code(CodeInternalFailure).Wrap(stderrors.Join(errs...))
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
