// Package api defines the domain types and client-facing error taxonomy for
// coursehub.
//
// Core types:
//   - [User]: an identity that can authenticate and own courses
//   - [Course]: a course owned by exactly one user
//   - [UserInput], [CourseInput]: request bodies, with presence tracked per field
//   - [APIError]: a client error with a status and a single message
//   - [ValidationError]: the full list of constraint violations for one write
//   - [ServerFault]: any failure whose detail must not reach the client
//
// Validation messages are part of the public API and follow the field
// declaration order of each entity. Constructors ([NewUser], [NewCourse])
// and [Course.Apply] run every validator and report all failures together.
//
// The package performs no I/O.
package api
