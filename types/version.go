package types

// Version is the canonical project version.
// Wire protocol, CLI, and store manifest formats share this version
// per the lockstep versioning policy.
//
// This version is authoritative. PROTOCOL.md must reference this constant.
const Version = "0.2.0"
