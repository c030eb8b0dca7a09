// Package mongostore is a MongoDB backend for session.Manager.
//
// Documents follow the connect-mongo layout with stringified sessions:
//
//	{ _id: "<key>", session: "<envelope json>", expires: ISODate(...) }
//
// Entries with ttl NoExpiry have no expires field. Reads ignore documents
// whose expires is in the past; EnsureIndexes creates the TTL index that lets
// the server delete them. To share sessions with connect-mongo configure the
// Manager with an empty StorePrefix.
package mongostore
