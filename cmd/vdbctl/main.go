// Command vdbctl is a thin CLI surface over the store package, following
// the flag/config wiring the teacher's cmd/util package establishes.
package main

func main() {
	Execute()
}
