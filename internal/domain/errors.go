package domain

import "errors"

// ErrNoSession an operation requiring an authenticated session was called
// while anonymous
var ErrNoSession = errors.New("No active session")

// ErrSessionExpired the backend rejected the session and refresh failed
var ErrSessionExpired = errors.New("Session expired")

// ErrInvalidCredentials sign-in rejected by the identity provider
var ErrInvalidCredentials = errors.New("Invalid email or password")

// ErrEmptyCourse a course with zero lessons cannot carry progress
var ErrEmptyCourse = errors.New("Course has no lessons")

// ErrLessonNotFound lesson id does not resolve against the course structure
var ErrLessonNotFound = errors.New("Lesson not found in course")

// ErrNoInterview no interview exists for the course
var ErrNoInterview = errors.New("No interview for course")

// ErrNoProgress progress for the course has not been fetched yet
var ErrNoProgress = errors.New("Course progress not loaded")
