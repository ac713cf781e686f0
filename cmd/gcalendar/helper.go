package main

import "strings"

// Strings collects the values of a repeatable flag, in the order they
// were given on the command line. Used for --calendar.
type Strings []string

func (s *Strings) String() string {
	return strings.Join(*s, ", ")
}

func (s *Strings) Set(value string) error {
	*s = append(*s, value)
	return nil
}
