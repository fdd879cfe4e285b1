package renderer

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// LoadShaderModule reads a SPIR-V binary from disk and wraps it in a shader
// module. A missing or malformed blob is a recoverable error; the material
// that wanted it simply is not created.
func LoadShaderModule(device core1_0.Device, path string) (core1_0.ShaderModule, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read shader %s", path)
	}

	if err := validateShaderBlob(blob); err != nil {
		return nil, errors.Wrapf(err, "shader %s", path)
	}

	module, _, err := device.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: bytesToBytecode(blob),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create shader module from %s", path)
	}

	return module, nil
}

// SPIR-V is a stream of 32-bit words.
func validateShaderBlob(blob []byte) error {
	if len(blob) == 0 {
		return errors.New("blob is empty")
	}
	if len(blob)%4 != 0 {
		return errors.Newf("blob length %d is not a multiple of 4", len(blob))
	}
	return nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}
