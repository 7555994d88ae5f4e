// Package wire defines the JSON wire format spoken by the HORIBA instrument
// control layer (ICL).
//
// Every exchange is a text WebSocket frame carrying a JSON object with
// camelCase keys.
//
// # Message Types
//
// There are two message types:
//   - Command: SDK to ICL, a command name plus named parameters
//   - Response: ICL to SDK, the named results of a command plus vendor errors
//
// A response echoes the id of the command it answers:
//
//	-> {"id": 7, "command": "ccd_getTemperature", "parameters": {"index": 0}}
//	<- {"id": 7, "command": "ccd_getTemperature", "results": {"temperature": -60}, "errors": []}
//
// # Results
//
// Result fields are vendor-defined and untyped on the wire. [Results]
// converts them on demand and reports missing or mistyped fields as
// [*FieldError]. Numbers are decoded as [encoding/json.Number] so large
// integers survive unchanged.
package wire
