package media

type AssetType string

const (
	AssetTypeThumbnail AssetType = "thumbnail"
	AssetTypeScene     AssetType = "scene"
	AssetTypeUnknown   AssetType = "unknown"
)
