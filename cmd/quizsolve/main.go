// Package main provides the entry point for the quizsolve CLI.
//
// quizsolve reads the multiple-choice questions of a quiz page, asks a
// solving API for the answers and selects them on the page.
//
// Usage:
//
//	quizsolve run quiz.html -o solved.html
//	quizsolve run --browser https://student.example.edu/test/42
//	quizsolve serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
