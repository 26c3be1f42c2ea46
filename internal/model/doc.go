// Package model defines the data structures shared by the quizsolve client,
// the solving API and the report writers.
//
// This package contains the following main types:
//   - Question and Answer: a multiple-choice question scraped from a quiz page
//   - Solution and SolveResponse: the solving API's verdicts
//   - RunReport: the run-scoped state of one extract -> request -> apply cycle
//
// The wire types serialize to exactly the JSON the solving API speaks, so the
// same structs are used on both ends of the connection.
package model
