// Package session keeps conversations addressable by id so a front end can
// run several independent dialogues against one provider. Storage is
// process-local; durable history is left to the embedding application.
package session
