package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/** @brief A quaternion, used to represent rotational orientation. Stored as x, y, z, w. */
type Quaternion Vec4

/**
 * @brief a 4x4 matrix, typically used to represent object transformations.
 * Element (column c, row r) lives at Data[c*4+r], which is the same memory
 * layout shaders and glTF files use, so a Mat4 can be copied to the GPU as is.
 */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}
