package consts

const (
	PushDedupKey        = "push:dedup:"         // push:dedup:<kind>:<entity>:<element>
	PushMembersDoneKey  = "push:members:done:"  // push:members:done:<kind>:<entity>
	PushTokenMissingKey = "push:token:missing:" // push:token:missing:<userID>
	UserSimpleInfoKey   = "user:simple:info:"
)

const (
	TokenRevokeKey = "auth:revoke:"
)
