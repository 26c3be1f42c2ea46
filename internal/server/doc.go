// Package server implements the solving API that quizsolve clients post
// questions to.
//
// POST /ai-solve/ takes a JSON array of questions and answers with a
// completed batch: one solution per question, in request order, plus
// counters. GET /health reports liveness. CORS is open to every origin so a
// quiz page on another host may call the API directly.
package server
