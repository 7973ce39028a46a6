package errorx

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest       Code = 100001
	BadResponse      Code = 100002
	PermissionDenied Code = 100003
	NotFound         Code = 100004
	Unauthenticated  Code = 100005
	AlreadyExists    Code = 100006
	Internal         Code = 100007
	Unavailable      Code = 100008

	// Map upload codes
	MapMissingMapFolderInsideZip   Code = 300001
	MapMultipleMapFoldersInsideZip Code = 300002
	MapFileInsideZipMissing        Code = 300003
	MapScenarioLuaMissing          Code = 300004
	MapNoValidMapName              Code = 300005
	MapNotOriginalAuthor           Code = 300006
	MapVersionExists               Code = 300007
	MapNameConflict                Code = 300008
	MapRenameFailed                Code = 300009

	// Email codes
	EmailInvalid     Code = 400001
	EmailBlacklisted Code = 400002

	// Deployment codes
	DeploymentMissingConfiguration Code = 500001
)
