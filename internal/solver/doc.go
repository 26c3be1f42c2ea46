// Package solver is the client of the answer-solving API.
//
// A Client sends every question of a run in one POST and decodes the
// solutions. It never retries: a failed call ends the run with one of
// the typed errors of this package.
//
//	c := solver.New(endpoint, solver.StaticToken(token))
//	resp, err := c.Solve(ctx, questions)
//	var se *solver.ServerError
//	if errors.As(err, &se) {
//	    // se.StatusCode
//	}
package solver
