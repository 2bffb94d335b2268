package contractvm

// A minimal WebAssembly binary encoder, enough to build the contracts used
// by the tests.

const (
	valueTypeI32 = 0x7f
	valueTypeI64 = 0x7e

	opLoop     = 0x03
	opEnd      = 0x0b
	opBr       = 0x0c
	opCall     = 0x10
	opDrop     = 0x1a
	opI32Const = 0x41
	opI64Const = 0x42
	blockEmpty = 0x40
)

// Function indexes of the host imports. Every test contract imports all of
// them in this order.
const (
	funcInputSize = iota
	funcInputCopy
	funcStorageLoad
	funcStorageStore
	funcTransfer
	funcUseGas
	funcRevert
	importedFunctionCount
)

type wasmFunctionType struct {
	params, results []byte
}

var hostImports = []struct {
	name         string
	functionType wasmFunctionType
}{
	{"input_size", wasmFunctionType{nil, []byte{valueTypeI32}}},
	{"input_copy", wasmFunctionType{[]byte{valueTypeI32}, nil}},
	{"storage_load", wasmFunctionType{[]byte{valueTypeI32, valueTypeI32, valueTypeI32}, []byte{valueTypeI32}}},
	{"storage_store", wasmFunctionType{[]byte{valueTypeI32, valueTypeI32, valueTypeI32, valueTypeI32}, nil}},
	{"transfer", wasmFunctionType{[]byte{valueTypeI32, valueTypeI64}, []byte{valueTypeI32}}},
	{"use_gas", wasmFunctionType{[]byte{valueTypeI64}, nil}},
	{"revert", wasmFunctionType{nil, nil}},
}

func unsignedLEB128(value uint64) []byte {
	var encoded []byte
	for {
		b := byte(value & 0x7f)
		value >>= 7
		if value != 0 {
			encoded = append(encoded, b|0x80)
			continue
		}
		return append(encoded, b)
	}
}

func signedLEB128(value int64) []byte {
	var encoded []byte
	for {
		b := byte(value & 0x7f)
		value >>= 7
		if (value == 0 && b&0x40 == 0) || (value == -1 && b&0x40 != 0) {
			return append(encoded, b)
		}
		encoded = append(encoded, b|0x80)
	}
}

func wasmVector(count int, contents ...[]byte) []byte {
	vector := unsignedLEB128(uint64(count))
	for _, content := range contents {
		vector = append(vector, content...)
	}
	return vector
}

func wasmName(name string) []byte {
	return append(unsignedLEB128(uint64(len(name))), name...)
}

func wasmSection(id byte, contents []byte) []byte {
	section := []byte{id}
	section = append(section, unsignedLEB128(uint64(len(contents)))...)
	return append(section, contents...)
}

func (functionType wasmFunctionType) encode() []byte {
	encoded := []byte{0x60}
	encoded = append(encoded, wasmVector(len(functionType.params), functionType.params)...)
	return append(encoded, wasmVector(len(functionType.results), functionType.results)...)
}

// buildContract returns a module importing every host function and
// exporting its memory and a single `() -> ()` function with the given
// body under exportName.
func buildContract(exportName string, body ...[]byte) []byte {
	var types, imports [][]byte
	for i, hostImport := range hostImports {
		types = append(types, hostImport.functionType.encode())

		entry := append(wasmName("env"), wasmName(hostImport.name)...)
		entry = append(entry, 0x00)
		entry = append(entry, unsignedLEB128(uint64(i))...)
		imports = append(imports, entry)
	}
	exportedTypeIndex := len(types)
	types = append(types, wasmFunctionType{}.encode())

	var code []byte
	code = append(code, 0x00) // no locals
	for _, instructions := range body {
		code = append(code, instructions...)
	}
	code = append(code, opEnd)
	codeEntry := append(unsignedLEB128(uint64(len(code))), code...)

	exportedFunction := append(wasmName(exportName), 0x00)
	exportedFunction = append(exportedFunction, unsignedLEB128(importedFunctionCount)...)
	exportedMemory := append(wasmName("memory"), 0x02, 0x00)

	module := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	module = append(module, wasmSection(1, wasmVector(len(types), types...))...)
	module = append(module, wasmSection(2, wasmVector(len(imports), imports...))...)
	module = append(module, wasmSection(3, wasmVector(1, unsignedLEB128(uint64(exportedTypeIndex))))...)
	module = append(module, wasmSection(5, wasmVector(1, []byte{0x00, 0x01}))...)
	module = append(module, wasmSection(7, wasmVector(2, exportedFunction, exportedMemory))...)
	module = append(module, wasmSection(10, wasmVector(1, codeEntry))...)
	return module
}

func i32Const(value int32) []byte {
	return append([]byte{opI32Const}, signedLEB128(int64(value))...)
}

func i64Const(value int64) []byte {
	return append([]byte{opI64Const}, signedLEB128(value)...)
}

func call(functionIndex int) []byte {
	return append([]byte{opCall}, unsignedLEB128(uint64(functionIndex))...)
}

// storeInputContract stores its input under the input itself.
func storeInputContract(exportName string) []byte {
	return buildContract(exportName,
		i32Const(0), call(funcInputCopy),
		i32Const(0), call(funcInputSize), i32Const(0), call(funcInputSize), call(funcStorageStore),
	)
}

// storeThenRevertContract writes to its storage and then reverts.
func storeThenRevertContract() []byte {
	return buildContract(callExport,
		i32Const(0), i32Const(1), i32Const(0), i32Const(1), call(funcStorageStore),
		call(funcRevert),
	)
}

// burnGasContract consumes the given amount of gas.
func burnGasContract(gas int64) []byte {
	return buildContract(callExport, i64Const(gas), call(funcUseGas))
}

// infiniteLoopContract never terminates.
func infiniteLoopContract() []byte {
	return buildContract(callExport, []byte{opLoop, blockEmpty, opBr, 0x00, opEnd})
}

// transferContract transfers amount to the address given as its input.
func transferContract(amount int64) []byte {
	return buildContract(callExport,
		i32Const(0), call(funcInputCopy),
		i32Const(0), i64Const(amount), call(funcTransfer), []byte{opDrop},
	)
}

// recursiveContract calls itself until it is stopped.
func recursiveContract() []byte {
	return buildContract(callExport, call(importedFunctionCount))
}
