// Package checker defines the hAPI check framework.
//
// Architecture overview:
//
//   - Every assessment module implements the Check interface (Run + Format).
//     Run issues requests through the shared Sender and returns raw rows;
//     Format turns those rows into a Section, the structured block every
//     report renderer consumes.
//   - A Descriptor advertises a check to the rest of the tool: its stable
//     name (CLI subcommand and registry key), a flag prefix, the option
//     schema, a decoder producing the check's typed Config, and a factory.
//   - Checks self-register from init() into the default Registry, so adding
//     a module never touches the orchestrator or the CLI wiring.
//   - Checks share only read-only collaborators through Env: the transport,
//     the OpenAPI endpoint index, a per-check random source and a logger.
//
// Built-in checks: verb_tampering, cors, basic_auth, common_security_headers
// and rate_limiting.
package checker
