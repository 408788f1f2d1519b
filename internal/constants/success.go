package constants

import "net/http"

// APISuccess represents a standardized API success response with code and HTTP status.
// Use these predefined success constants for consistent API responses across the application.
type APISuccess struct {
	Code   string
	Status int
}

// Link-related success responses
var (
	SuccessLinkCreated = APISuccess{
		Code:   CodeLinkCreated,
		Status: http.StatusCreated,
	}
	SuccessLinkFound = APISuccess{
		Code:   CodeLinkFound,
		Status: http.StatusOK,
	}
	SuccessLinkUpdated = APISuccess{
		Code:   CodeLinkUpdated,
		Status: http.StatusOK,
	}
	SuccessLinkDeleted = APISuccess{
		Code:   CodeLinkDeleted,
		Status: http.StatusOK,
	}
	SuccessLinksListed = APISuccess{
		Code:   CodeLinksListed,
		Status: http.StatusOK,
	}
	SuccessStatsFound = APISuccess{
		Code:   CodeStatsFound,
		Status: http.StatusOK,
	}
)

// Account success responses
var (
	SuccessUserRegistered = APISuccess{
		Code:   CodeUserRegistered,
		Status: http.StatusCreated,
	}
	SuccessLoggedIn = APISuccess{
		Code:   CodeLoggedIn,
		Status: http.StatusOK,
	}
	SuccessUserFound = APISuccess{
		Code:   CodeUserFound,
		Status: http.StatusOK,
	}
)
