// Package flowfile loads conversation templates from YAML documents.
//
// A flowfile declares a list of nodes that become the children of one root
// sequence. Each node names a kind, an id and the fields that kind needs:
//
//	version: 1
//	id: onboarding
//	vars:
//	  user: ada
//	nodes:
//	  - kind: say
//	    id: greet
//	    text: "Hello {{.user}}!"
//	  - kind: ask
//	    id: more
//	    prompt: "Anything else?"
//	    default: "no"
//	    into: followup
//	  - kind: branch
//	    id: check
//	    when:
//	      var: followup
//	      equals: "no"
//	    then:
//	      kind: terminate
//	    else:
//	      kind: goto
//	      id: again
//	      target: greet
//
// The supported kinds are say, generate, ask, sequence, loop, branch, goto,
// break, terminate and subroutine. Tools cannot be declared here; they are Go
// functions and get wired in code.
//
// Predicates, used by branch when and loop until, compare conversation
// variables or the newest message:
//
//	when:
//	  var: attempts      # variable name
//	  equals: 3          # true when the variable holds this value
//	when:
//	  var: consent
//	  set: true          # true when the variable exists
//	when:
//	  last_contains: bye # true when the newest message contains the text
//	when:
//	  not:               # negates the nested predicate
//	    var: consent
//	    set: true
//
// Anything malformed, from an unknown kind to a duplicate id, surfaces as an
// error wrapping the engine's configuration error, so callers can tell broken
// flowfiles apart from runtime failures.
package flowfile
