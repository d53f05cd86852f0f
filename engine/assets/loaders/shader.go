package loaders

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/spaghettifunk/anima/engine/core"
	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

const spirvMagic uint32 = 0x07230203

type ShaderLoader struct{}

// Load reads a compiled SPIR-V stage. Data is the []uint32 word stream.
func (sl *ShaderLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	code, err := LoadSPIRV(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Type:     metadata.ResourceTypeShader,
		Name:     resourceName(path),
		FullPath: path,
		DataSize: uint64(len(code) * 4),
		Data:     code,
	}, nil
}

func (sl *ShaderLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	return nil
}

// LoadSPIRV reads and validates a SPIR-V binary.
func LoadSPIRV(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewError(core.ErrorKindShaderLoad, "read "+path, err)
	}
	code, err := bytesToBytecode(data)
	if err != nil {
		return nil, core.NewError(core.ErrorKindShaderLoad, path, err)
	}
	return code, nil
}

func bytesToBytecode(b []byte) ([]uint32, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("empty shader binary")
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("shader binary size %d is not a multiple of 4", len(b))
	}
	if magic := binary.LittleEndian.Uint32(b); magic != spirvMagic {
		return nil, fmt.Errorf("bad SPIR-V magic 0x%08x", magic)
	}
	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteCode[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return byteCode, nil
}
