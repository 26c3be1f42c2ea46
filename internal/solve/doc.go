// Package solve answers questions for the solving API by trying a chain of
// strategies: the primary model, the backup model, and finally a heuristic
// guess. Model answers are cached; guesses are not.
package solve
