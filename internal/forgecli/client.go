package forgecli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/forgerun/forgerun/internal/execshell"
)

const (
	apiSubcommandConstant                   = "api"
	methodFlagConstant                      = "-X"
	inputFlagConstant                       = "--input"
	stdinReferenceConstant                  = "-"
	acceptHeaderFlagConstant                = "-H"
	acceptHeaderValueConstant               = "Accept: application/vnd.github+json"
	httpMethodPostConstant                  = "POST"
	httpMethodPutConstant                   = "PUT"
	httpMethodDeleteConstant                = "DELETE"
	repositoryFieldNameConstant             = "repository"
	repositoryNameFieldNameConstant         = "repository_name"
	pullRequestTitleFieldNameConstant       = "title"
	headBranchFieldNameConstant             = "head_branch"
	baseBranchFieldNameConstant             = "base_branch"
	commentBodyFieldNameConstant            = "comment_body"
	pullRequestNumberFieldNameConstant      = "pull_request_number"
	requiredValueMessageConstant            = "value required"
	positiveValueMessageConstant            = "value must be positive"
	executorNotConfiguredMessageConstant    = "forge cli executor not configured"
	accessTokenMissingMessageConstant       = "access token must be provided"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	payloadEncodingErrorTemplateConstant    = "%s payload encoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	notFoundErrorTemplateConstant           = "%s: %s was not found"
	authenticationErrorTemplateConstant     = "%s: forge rejected the supplied credentials"
	mergeBlockedErrorTemplateConstant       = "%s: pull request #%d cannot be merged"
	tokenEnvironmentNameConstant            = "GH_TOKEN"
	hostEnvironmentNameConstant             = "GH_HOST"
	environmentAssignmentTemplateConstant   = "%s=%s"
	authenticatedUserEndpointConstant       = "user"
	userRepositoriesEndpointConstant        = "user/repos?per_page=100&affiliation=owner"
	createRepositoryEndpointConstant        = "user/repos"
	repositoryEndpointTemplateConstant      = "repos/%s"
	pullRequestsEndpointTemplateConstant    = "repos/%s/pulls"
	pullRequestEndpointTemplateConstant     = "repos/%s/pulls/%d"
	mergeEndpointTemplateConstant           = "repos/%s/pulls/%d/merge"
	commentsEndpointTemplateConstant        = "repos/%s/issues/%d/comments"
	notFoundStatusMarkerConstant            = "HTTP 404"
	unauthorizedStatusMarkerConstant        = "HTTP 401"
	forbiddenStatusMarkerConstant           = "HTTP 403"
	methodNotAllowedStatusMarkerConstant    = "HTTP 405"
	conflictStatusMarkerConstant            = "HTTP 409"
)

// Operation name constants used in error reporting.
const (
	checkAuthenticationOperationNameConstant  = OperationName("CheckAuthentication")
	viewRepositoryOperationNameConstant       = OperationName("ViewRepository")
	createRepositoryOperationNameConstant     = OperationName("CreateRepository")
	deleteRepositoryOperationNameConstant     = OperationName("DeleteRepository")
	listRepositoriesOperationNameConstant     = OperationName("ListRepositories")
	createPullRequestOperationNameConstant    = OperationName("CreatePullRequest")
	getPullRequestOperationNameConstant       = OperationName("GetPullRequest")
	listPullRequestsOperationNameConstant     = OperationName("ListPullRequests")
	mergePullRequestOperationNameConstant     = OperationName("MergePullRequest")
	commentOnPullRequestOperationNameConstant = OperationName("CommentOnPullRequest")
)

// OperationName describes a named forge API workflow supported by the client.
type OperationName string

// PullRequestState describes acceptable pull request states.
type PullRequestState string

// Pull request state enumerations.
const (
	PullRequestStateOpen   PullRequestState = PullRequestState("open")
	PullRequestStateClosed PullRequestState = PullRequestState("closed")
	PullRequestStateAll    PullRequestState = PullRequestState("all")
)

// Credentials carry the token and optional host used for forge API calls.
type Credentials struct {
	AccessToken string
	Host        string
}

// AuthenticatedUser describes the account the credentials resolve to.
type AuthenticatedUser struct {
	Login string
	Name  string
}

// Repository contains key repository details returned by the forge.
type Repository struct {
	Name          string
	FullName      string
	Description   string
	DefaultBranch string
	Private       bool
	HTMLURL       string
	CloneURL      string
}

// RepositoryCreateOptions configures CreateRepository requests.
type RepositoryCreateOptions struct {
	Name        string
	Description string
	Private     bool
	AutoInit    bool
}

// PullRequest represents pull request details returned by the forge.
type PullRequest struct {
	Number      int
	Title       string
	State       string
	HeadRefName string
	BaseRefName string
	Merged      bool
	HTMLURL     string
}

// PullRequestCreateOptions configures CreatePullRequest requests.
type PullRequestCreateOptions struct {
	Title      string
	Body       string
	HeadBranch string
	BaseBranch string
}

// ForgeCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type ForgeCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates forge API invocations through execshell.
type Client struct {
	executor    ForgeCommandExecutor
	credentials Credentials
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrAccessTokenRequired indicates the client was constructed without a token.
	ErrAccessTokenRequired = errors.New(accessTokenMissingMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for forge API operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// NotFoundError indicates the forge reported a missing resource.
type NotFoundError struct {
	Operation OperationName
	Resource  string
}

// Error describes the missing resource.
func (notFoundError NotFoundError) Error() string {
	return fmt.Sprintf(notFoundErrorTemplateConstant, notFoundError.Operation, notFoundError.Resource)
}

// AuthenticationError indicates the forge rejected the supplied credentials.
type AuthenticationError struct {
	Operation OperationName
}

// Error describes the credential rejection.
func (authenticationError AuthenticationError) Error() string {
	return fmt.Sprintf(authenticationErrorTemplateConstant, authenticationError.Operation)
}

// MergeBlockedError indicates the forge refused to merge a pull request.
type MergeBlockedError struct {
	Operation         OperationName
	PullRequestNumber int
}

// Error describes the blocked merge.
func (mergeBlockedError MergeBlockedError) Error() string {
	return fmt.Sprintf(mergeBlockedErrorTemplateConstant, mergeBlockedError.Operation, mergeBlockedError.PullRequestNumber)
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// PayloadEncodingError indicates JSON encoding issues.
type PayloadEncodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the encoding failure.
func (encodingError PayloadEncodingError) Error() string {
	return fmt.Sprintf(payloadEncodingErrorTemplateConstant, encodingError.Operation, encodingError.Cause)
}

// Unwrap exposes the underlying error.
func (encodingError PayloadEncodingError) Unwrap() error {
	return encodingError.Cause
}

// NewClient constructs a forge CLI client bound to the provided credentials.
func NewClient(executor ForgeCommandExecutor, credentials Credentials) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if len(strings.TrimSpace(credentials.AccessToken)) == 0 {
		return nil, ErrAccessTokenRequired
	}
	return &Client{executor: executor, credentials: credentials}, nil
}

// CheckAuthentication resolves the account behind the configured credentials.
func (client *Client) CheckAuthentication(executionContext context.Context) (AuthenticatedUser, error) {
	executionResult, executionError := client.callAPI(executionContext, authenticatedUserEndpointConstant, "", nil)
	if executionError != nil {
		return AuthenticatedUser{}, client.classifyFailure(checkAuthenticationOperationNameConstant, authenticatedUserEndpointConstant, 0, executionError)
	}

	var response struct {
		Login string `json:"login"`
		Name  string `json:"name"`
	}
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response); decodingError != nil {
		return AuthenticatedUser{}, ResponseDecodingError{Operation: checkAuthenticationOperationNameConstant, Cause: decodingError}
	}
	return AuthenticatedUser{Login: response.Login, Name: response.Name}, nil
}

// ViewRepository retrieves repository metadata. Missing repositories surface as NotFoundError.
func (client *Client) ViewRepository(executionContext context.Context, repositoryWithOwner string) (Repository, error) {
	repositoryIdentifier := strings.TrimSpace(repositoryWithOwner)
	if len(repositoryIdentifier) == 0 {
		return Repository{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	endpoint := fmt.Sprintf(repositoryEndpointTemplateConstant, repositoryIdentifier)
	executionResult, executionError := client.callAPI(executionContext, endpoint, "", nil)
	if executionError != nil {
		return Repository{}, client.classifyFailure(viewRepositoryOperationNameConstant, repositoryIdentifier, 0, executionError)
	}

	var response repositoryResponse
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response); decodingError != nil {
		return Repository{}, ResponseDecodingError{Operation: viewRepositoryOperationNameConstant, Cause: decodingError}
	}
	return response.toRepository(), nil
}

// CreateRepository provisions a repository on the authenticated account.
func (client *Client) CreateRepository(executionContext context.Context, options RepositoryCreateOptions) (Repository, error) {
	repositoryName := strings.TrimSpace(options.Name)
	if len(repositoryName) == 0 {
		return Repository{}, InvalidInputError{FieldName: repositoryNameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	payload := struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Private     bool   `json:"private"`
		AutoInit    bool   `json:"auto_init"`
	}{
		Name:        repositoryName,
		Description: options.Description,
		Private:     options.Private,
		AutoInit:    options.AutoInit,
	}
	payloadBytes, encodingError := json.Marshal(payload)
	if encodingError != nil {
		return Repository{}, PayloadEncodingError{Operation: createRepositoryOperationNameConstant, Cause: encodingError}
	}

	executionResult, executionError := client.callAPI(executionContext, createRepositoryEndpointConstant, httpMethodPostConstant, payloadBytes)
	if executionError != nil {
		return Repository{}, client.classifyFailure(createRepositoryOperationNameConstant, repositoryName, 0, executionError)
	}

	var response repositoryResponse
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response); decodingError != nil {
		return Repository{}, ResponseDecodingError{Operation: createRepositoryOperationNameConstant, Cause: decodingError}
	}
	return response.toRepository(), nil
}

// DeleteRepository removes a repository. Missing repositories surface as NotFoundError.
func (client *Client) DeleteRepository(executionContext context.Context, repositoryWithOwner string) error {
	repositoryIdentifier := strings.TrimSpace(repositoryWithOwner)
	if len(repositoryIdentifier) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	endpoint := fmt.Sprintf(repositoryEndpointTemplateConstant, repositoryIdentifier)
	_, executionError := client.callAPI(executionContext, endpoint, httpMethodDeleteConstant, nil)
	if executionError != nil {
		return client.classifyFailure(deleteRepositoryOperationNameConstant, repositoryIdentifier, 0, executionError)
	}
	return nil
}

// ListRepositories enumerates repositories owned by the authenticated account.
func (client *Client) ListRepositories(executionContext context.Context) ([]Repository, error) {
	executionResult, executionError := client.callAPI(executionContext, userRepositoriesEndpointConstant, "", nil)
	if executionError != nil {
		return nil, client.classifyFailure(listRepositoriesOperationNameConstant, userRepositoriesEndpointConstant, 0, executionError)
	}

	var response []repositoryResponse
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response); decodingError != nil {
		return nil, ResponseDecodingError{Operation: listRepositoriesOperationNameConstant, Cause: decodingError}
	}

	repositories := make([]Repository, 0, len(response))
	for _, repositoryEntry := range response {
		repositories = append(repositories, repositoryEntry.toRepository())
	}
	return repositories, nil
}

// CreatePullRequest opens a pull request between the head and base branches.
func (client *Client) CreatePullRequest(executionContext context.Context, repositoryWithOwner string, options PullRequestCreateOptions) (PullRequest, error) {
	repositoryIdentifier := strings.TrimSpace(repositoryWithOwner)
	if len(repositoryIdentifier) == 0 {
		return PullRequest{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.Title)) == 0 {
		return PullRequest{}, InvalidInputError{FieldName: pullRequestTitleFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.HeadBranch)) == 0 {
		return PullRequest{}, InvalidInputError{FieldName: headBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(options.BaseBranch)) == 0 {
		return PullRequest{}, InvalidInputError{FieldName: baseBranchFieldNameConstant, Message: requiredValueMessageConstant}
	}

	payload := struct {
		Title string `json:"title"`
		Body  string `json:"body,omitempty"`
		Head  string `json:"head"`
		Base  string `json:"base"`
	}{
		Title: options.Title,
		Body:  options.Body,
		Head:  options.HeadBranch,
		Base:  options.BaseBranch,
	}
	payloadBytes, encodingError := json.Marshal(payload)
	if encodingError != nil {
		return PullRequest{}, PayloadEncodingError{Operation: createPullRequestOperationNameConstant, Cause: encodingError}
	}

	endpoint := fmt.Sprintf(pullRequestsEndpointTemplateConstant, repositoryIdentifier)
	executionResult, executionError := client.callAPI(executionContext, endpoint, httpMethodPostConstant, payloadBytes)
	if executionError != nil {
		return PullRequest{}, client.classifyFailure(createPullRequestOperationNameConstant, repositoryIdentifier, 0, executionError)
	}

	var response pullRequestResponse
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response); decodingError != nil {
		return PullRequest{}, ResponseDecodingError{Operation: createPullRequestOperationNameConstant, Cause: decodingError}
	}
	return response.toPullRequest(), nil
}

// GetPullRequest retrieves a single pull request by number.
func (client *Client) GetPullRequest(executionContext context.Context, repositoryWithOwner string, pullRequestNumber int) (PullRequest, error) {
	repositoryIdentifier := strings.TrimSpace(repositoryWithOwner)
	if len(repositoryIdentifier) == 0 {
		return PullRequest{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if pullRequestNumber <= 0 {
		return PullRequest{}, InvalidInputError{FieldName: pullRequestNumberFieldNameConstant, Message: positiveValueMessageConstant}
	}

	endpoint := fmt.Sprintf(pullRequestEndpointTemplateConstant, repositoryIdentifier, pullRequestNumber)
	executionResult, executionError := client.callAPI(executionContext, endpoint, "", nil)
	if executionError != nil {
		return PullRequest{}, client.classifyFailure(getPullRequestOperationNameConstant, endpoint, pullRequestNumber, executionError)
	}

	var response pullRequestResponse
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response); decodingError != nil {
		return PullRequest{}, ResponseDecodingError{Operation: getPullRequestOperationNameConstant, Cause: decodingError}
	}
	return response.toPullRequest(), nil
}

// ListPullRequests enumerates pull requests for the repository in the requested state.
func (client *Client) ListPullRequests(executionContext context.Context, repositoryWithOwner string, state PullRequestState) ([]PullRequest, error) {
	repositoryIdentifier := strings.TrimSpace(repositoryWithOwner)
	if len(repositoryIdentifier) == 0 {
		return nil, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(state) == 0 {
		state = PullRequestStateOpen
	}

	endpoint := fmt.Sprintf(pullRequestsEndpointTemplateConstant, repositoryIdentifier) + "?state=" + string(state)
	executionResult, executionError := client.callAPI(executionContext, endpoint, "", nil)
	if executionError != nil {
		return nil, client.classifyFailure(listPullRequestsOperationNameConstant, repositoryIdentifier, 0, executionError)
	}

	var response []pullRequestResponse
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response); decodingError != nil {
		return nil, ResponseDecodingError{Operation: listPullRequestsOperationNameConstant, Cause: decodingError}
	}

	pullRequests := make([]PullRequest, 0, len(response))
	for _, pullRequestEntry := range response {
		pullRequests = append(pullRequests, pullRequestEntry.toPullRequest())
	}
	return pullRequests, nil
}

// MergePullRequest merges a pull request. Refusals caused by conflicting or
// unmergeable pull requests surface as MergeBlockedError.
func (client *Client) MergePullRequest(executionContext context.Context, repositoryWithOwner string, pullRequestNumber int) error {
	repositoryIdentifier := strings.TrimSpace(repositoryWithOwner)
	if len(repositoryIdentifier) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if pullRequestNumber <= 0 {
		return InvalidInputError{FieldName: pullRequestNumberFieldNameConstant, Message: positiveValueMessageConstant}
	}

	endpoint := fmt.Sprintf(mergeEndpointTemplateConstant, repositoryIdentifier, pullRequestNumber)
	_, executionError := client.callAPI(executionContext, endpoint, httpMethodPutConstant, nil)
	if executionError != nil {
		return client.classifyFailure(mergePullRequestOperationNameConstant, endpoint, pullRequestNumber, executionError)
	}
	return nil
}

// CommentOnPullRequest posts a comment on the pull request conversation.
func (client *Client) CommentOnPullRequest(executionContext context.Context, repositoryWithOwner string, pullRequestNumber int, commentBody string) error {
	repositoryIdentifier := strings.TrimSpace(repositoryWithOwner)
	if len(repositoryIdentifier) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if pullRequestNumber <= 0 {
		return InvalidInputError{FieldName: pullRequestNumberFieldNameConstant, Message: positiveValueMessageConstant}
	}
	if len(strings.TrimSpace(commentBody)) == 0 {
		return InvalidInputError{FieldName: commentBodyFieldNameConstant, Message: requiredValueMessageConstant}
	}

	payload := struct {
		Body string `json:"body"`
	}{Body: commentBody}
	payloadBytes, encodingError := json.Marshal(payload)
	if encodingError != nil {
		return PayloadEncodingError{Operation: commentOnPullRequestOperationNameConstant, Cause: encodingError}
	}

	endpoint := fmt.Sprintf(commentsEndpointTemplateConstant, repositoryIdentifier, pullRequestNumber)
	_, executionError := client.callAPI(executionContext, endpoint, httpMethodPostConstant, payloadBytes)
	if executionError != nil {
		return client.classifyFailure(commentOnPullRequestOperationNameConstant, endpoint, pullRequestNumber, executionError)
	}
	return nil
}

func (client *Client) callAPI(executionContext context.Context, endpoint string, httpMethod string, payload []byte) (execshell.ExecutionResult, error) {
	arguments := []string{apiSubcommandConstant, endpoint}
	if len(httpMethod) > 0 {
		arguments = append(arguments, methodFlagConstant, httpMethod)
	}
	if len(payload) > 0 {
		arguments = append(arguments, inputFlagConstant, stdinReferenceConstant)
	}
	arguments = append(arguments, acceptHeaderFlagConstant, acceptHeaderValueConstant)

	environmentVariables := []string{
		fmt.Sprintf(environmentAssignmentTemplateConstant, tokenEnvironmentNameConstant, client.credentials.AccessToken),
	}
	if len(strings.TrimSpace(client.credentials.Host)) > 0 {
		environmentVariables = append(environmentVariables, fmt.Sprintf(environmentAssignmentTemplateConstant, hostEnvironmentNameConstant, client.credentials.Host))
	}

	commandDetails := execshell.CommandDetails{
		Arguments:            arguments,
		EnvironmentVariables: environmentVariables,
		StandardInput:        payload,
	}
	return client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
}

func (client *Client) classifyFailure(operation OperationName, resource string, pullRequestNumber int, executionError error) error {
	var commandFailure execshell.CommandFailedError
	if errors.As(executionError, &commandFailure) {
		standardError := commandFailure.Result.StandardError
		switch {
		case strings.Contains(standardError, notFoundStatusMarkerConstant):
			return NotFoundError{Operation: operation, Resource: resource}
		case strings.Contains(standardError, unauthorizedStatusMarkerConstant), strings.Contains(standardError, forbiddenStatusMarkerConstant):
			return AuthenticationError{Operation: operation}
		case strings.Contains(standardError, methodNotAllowedStatusMarkerConstant), strings.Contains(standardError, conflictStatusMarkerConstant):
			return MergeBlockedError{Operation: operation, PullRequestNumber: pullRequestNumber}
		}
	}
	return OperationError{Operation: operation, Cause: executionError}
}

type repositoryResponse struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
	HTMLURL       string `json:"html_url"`
	CloneURL      string `json:"clone_url"`
}

func (response repositoryResponse) toRepository() Repository {
	return Repository{
		Name:          response.Name,
		FullName:      response.FullName,
		Description:   response.Description,
		DefaultBranch: response.DefaultBranch,
		Private:       response.Private,
		HTMLURL:       response.HTMLURL,
		CloneURL:      response.CloneURL,
	}
}

type pullRequestResponse struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
	Merged bool   `json:"merged"`
	Head   struct {
		Ref string `json:"ref"`
	} `json:"head"`
	Base struct {
		Ref string `json:"ref"`
	} `json:"base"`
	HTMLURL string `json:"html_url"`
}

func (response pullRequestResponse) toPullRequest() PullRequest {
	return PullRequest{
		Number:      response.Number,
		Title:       response.Title,
		State:       response.State,
		HeadRefName: response.Head.Ref,
		BaseRefName: response.Base.Ref,
		Merged:      response.Merged,
		HTMLURL:     response.HTMLURL,
	}
}
