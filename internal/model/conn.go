package model

// ConnID uniquely identifies a transport-level peer connection.
//
// The transport owns the underlying connection; everything above it refers to
// a peer only by its ConnID. Equality is connection identity, not username:
// the same user connecting twice yields two distinct ConnIDs.
type ConnID string

// NoConn is the zero ConnID, used for vacant seats.
const NoConn ConnID = ""
