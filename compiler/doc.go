/*

Program lifecycle

Host description (fixture yaml, Go code) ->
	build ->
Intermediate Representation (ir) ->
	verify ->
Verified ir.Func / ir.Package ->
	interp.Call ->
Value | Fault

The interpreter trusts nothing it is given:
every invariant verify checks statically is also checked while executing.

*/
package compiler
