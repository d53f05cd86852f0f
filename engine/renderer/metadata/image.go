package metadata

/**
 * @brief A structure to hold image resource data. Pixels are 8-bit RGBA,
 * row by row.
 */
type ImageResourceData struct {
	/** @brief The width of the image. */
	Width uint32
	/** @brief The height of the image. */
	Height uint32
	/** @brief The pixel data of the image. */
	Pixels []uint8
}

/** @brief Parameters used when loading an image. */
type ImageResourceParams struct {
	/** @brief Resize to Width x Height when both are non-zero. */
	Width  uint32
	Height uint32
}
