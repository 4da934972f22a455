//go:build !cuda

package speech

const gpuBuild = false
