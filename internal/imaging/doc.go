// Package imaging loads lot images and turns them into the binary masks the
// occupancy classifier counts pixels on.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based with (0,0) at the
// top-left corner:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, Min is inclusive and Max is exclusive, as in image.Rectangle
//
// Regions that extend past the image are clipped to it rather than rejected.
// Slots are often marked right at the edge of a lot photo.
//
// # Pipeline
//
// Preprocess runs BT.601 luma conversion, Gaussian blur, an inverse adaptive
// Gaussian threshold, a median filter and a dilation, in that order. Kernel
// weights and border handling follow OpenCV's conventions. The
// result is 255 wherever the photo is textured or darker than its
// surroundings and 0 on smooth pavement. Kernel sizes and the threshold
// constant live in Params.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Preprocess and Crop do not modify
// their input and can run concurrently.
package imaging
