// Package value defines Value, the tagged union held by every lesson variable.
//
// A Value carries exactly one of a number, a text string, a boolean, an
// ordered sequence of numbers, or a record of named fields:
//
//	angle := value.Number(45)
//	label := value.Text("sin θ")
//	point := value.Object(map[string]value.Value{
//	    "x": value.Number(0.7),
//	    "y": value.Number(0.7),
//	})
//
// The zero Value is the number 0, which is also what the registry hands out
// for names it does not know.
package value
