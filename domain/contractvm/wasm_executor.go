package contractvm

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hybridchain/hybridd/domain/chainconfig"
	"github.com/hybridchain/hybridd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hybridd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hybridd/domain/contracts"
	"github.com/hybridchain/hybridd/domain/statetree"
	"github.com/pkg/errors"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
)

const (
	// maxMemoryPages limits the linear memory of a contract to 16MiB.
	maxMemoryPages = 256

	createExport = "init"
	callExport   = "call"
)

// WASMExecutorFactory creates executors running WebAssembly contracts.
// It is safe for concurrent use; executors it creates are not.
type WASMExecutorFactory struct {
	params  *chainconfig.Params
	runtime wazero.Runtime

	// modulesLock guards compiling, instantiating and evicting modules,
	// so that a module is never closed while being instantiated.
	modulesLock sync.Mutex
	modules     *lru.Cache[externalapi.DomainHash, wazero.CompiledModule]
}

var _ ExecutorFactory = (*WASMExecutorFactory)(nil)

// NewWASMExecutorFactory creates a WASMExecutorFactory keeping up to
// cacheSize compiled contracts.
func NewWASMExecutorFactory(ctx context.Context, params *chainconfig.Params, cacheSize int) (*WASMExecutorFactory, error) {
	runtimeConfig := wazero.NewRuntimeConfig().
		WithCloseOnContextDone(true).
		WithMemoryLimitPages(maxMemoryPages)
	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeConfig)

	err := instantiateHostModule(ctx, runtime)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, err
	}

	modules, err := lru.NewWithEvict[externalapi.DomainHash, wazero.CompiledModule](cacheSize,
		func(codeHash externalapi.DomainHash, module wazero.CompiledModule) {
			err := module.Close(context.Background())
			if err != nil {
				log.Warnf("Failed closing compiled contract %s: %s", codeHash, err)
			}
		})
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, errors.WithStack(err)
	}

	return &WASMExecutorFactory{
		params:  params,
		runtime: runtime,
		modules: modules,
	}, nil
}

// CreateExecutor returns an Executor running contracts against snapshot.
func (f *WASMExecutorFactory) CreateExecutor(snapshot *statetree.Snapshot, _ *TransactionContext) (Executor, error) {
	return &wasmExecutor{
		factory: f,
		state:   &contractState{snapshot: snapshot},
	}, nil
}

// Close releases the runtime and every compiled contract.
func (f *WASMExecutorFactory) Close(ctx context.Context) error {
	f.modulesLock.Lock()
	defer f.modulesLock.Unlock()

	f.modules.Purge()
	return errors.WithStack(f.runtime.Close(ctx))
}

// errInvalidModule is returned when contract code is not a valid module.
var errInvalidModule = errors.New("invalid contract module")

// instantiate compiles code, or takes it from the cache, and returns a new
// anonymous instance of it.
func (f *WASMExecutorFactory) instantiate(ctx context.Context, code []byte) (api.Module, error) {
	f.modulesLock.Lock()
	defer f.modulesLock.Unlock()

	codeHash := statetree.ValueHash(code)
	compiled, ok := f.modules.Get(*codeHash)
	if !ok {
		var err error
		compiled, err = f.runtime.CompileModule(experimental.WithFunctionListenerFactory(ctx, callMeter), code)
		if err != nil {
			return nil, errors.Wrap(errInvalidModule, err.Error())
		}
		f.modules.Add(*codeHash, compiled)
	}

	moduleConfig := wazero.NewModuleConfig().WithName("").WithStartFunctions()
	module, err := f.runtime.InstantiateModule(ctx, compiled, moduleConfig)
	if err != nil {
		return nil, errors.Wrap(errInvalidModule, err.Error())
	}
	return module, nil
}

// callMeter charges functionCallGas for every call of a function defined
// by a contract, so that recursion runs out of gas.
var callMeter = experimental.FunctionListenerFactoryFunc(
	func(api.FunctionDefinition) experimental.FunctionListener {
		return experimental.FunctionListenerFunc(chargeFunctionCall)
	})

func chargeFunctionCall(ctx context.Context, _ api.Module, _ api.FunctionDefinition, _ []uint64,
	_ experimental.StackIterator) {

	invocationContextFrom(ctx).charge(functionCallGas)
}

type wasmExecutor struct {
	factory *WASMExecutorFactory
	state   *contractState
}

// Execute runs every invocation of the transaction in output order. State
// changes of a failed invocation are rolled back; a transaction that does
// not finish within the execution limit has all its changes rolled back and
// ErrExecutionAborted is returned.
func (e *wasmExecutor) Execute(ctx context.Context, txContext *TransactionContext) (*ExecutionResult, error) {
	executionLimit := e.factory.params.ContractExecutionLimit
	if executionLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, executionLimit)
		defer cancel()
	}

	revision := e.state.snapshot.Checkpoint()
	result, err := e.execute(ctx, txContext)
	if err != nil {
		revertErr := e.state.snapshot.RevertTo(revision)
		if revertErr != nil {
			return nil, revertErr
		}
		return nil, err
	}
	return result, nil
}

func (e *wasmExecutor) execute(ctx context.Context, txContext *TransactionContext) (*ExecutionResult, error) {
	params := e.factory.params
	invocations := txContext.Payload.Invocations

	senderScript, err := payToAddressScript(txContext.Sender, params)
	if err != nil {
		return nil, err
	}

	// The mempool fee must cover the gas of every invocation
	funded := true
	costs := make([]uint64, len(invocations))
	for i, invocation := range invocations {
		var ok bool
		costs[i], ok = gasCost(invocation.GasLimit, invocation.GasPrice)
		if !ok {
			funded = false
		}
	}
	totalCost, ok := addAmounts(costs...)
	if !ok || totalCost > txContext.Fee {
		funded = false
	}

	result := &ExecutionResult{Status: StatusSuccess, Fee: txContext.Fee}
	condenser := newCondenser(params, e.state, txContext.Transaction)
	for _, invocation := range invocations {
		succeeded := false
		gasUsed := invocation.GasLimit
		if funded {
			succeeded, gasUsed, err = e.invoke(ctx, txContext, invocation, condenser)
			if err != nil {
				return nil, err
			}
		}
		if !succeeded {
			result.Status = StatusFailed
			condenser.refundValue(invocation, senderScript)
		}
		result.GasUsed += gasUsed

		if !funded {
			continue
		}
		refund, _ := gasCost(invocation.GasLimit-gasUsed, invocation.GasPrice)
		if refund > 0 {
			result.Fee -= refund
			result.RefundOutputs = append(result.RefundOutputs, &externalapi.DomainTransactionOutput{
				Value:           refund,
				ScriptPublicKey: senderScript,
			})
		}
	}

	result.InternalTransaction, err = condenser.internalTransaction()
	if err != nil {
		return nil, err
	}
	return result, nil
}

// invoke runs a single invocation and returns whether it succeeded and the
// gas it used. A failed invocation uses all of its gas and leaves no trace
// in the state.
func (e *wasmExecutor) invoke(ctx context.Context, txContext *TransactionContext,
	invocation *contracts.Invocation, condenser *condenser) (succeeded bool, gasUsed uint64, err error) {

	revision := e.state.snapshot.Checkpoint()
	ic := &invocationContext{
		state:    e.state,
		contract: invocation.Contract,
		input:    invocation.Data,
		gas:      newGasMeter(invocation.GasLimit),
	}

	reason, err := e.run(ctx, txContext, invocation, ic)
	if err != nil {
		return false, 0, err
	}
	if reason != nil {
		log.Debugf("Invocation of %s at output %d failed: %s",
			invocation.Contract, invocation.OutputIndex, reason)
		err = e.state.snapshot.RevertTo(revision)
		if err != nil {
			return false, 0, err
		}
		return false, invocation.GasLimit, nil
	}

	err = condenser.acceptInvocation(invocation, ic.transfers)
	if err != nil {
		return false, 0, err
	}
	return true, ic.gas.used, nil
}

// run executes an invocation. It returns the reason of a contract failure,
// or an error if the execution could not be carried out at all.
func (e *wasmExecutor) run(ctx context.Context, txContext *TransactionContext,
	invocation *contracts.Invocation, ic *invocationContext) (reason error, err error) {

	params := e.factory.params
	if invocation.GasLimit > params.MaxGasLimit {
		return errors.Errorf("gas limit %d is above %d", invocation.GasLimit, params.MaxGasLimit), nil
	}
	if invocation.GasPrice < params.MinGasPrice {
		return errors.Errorf("gas price %d is below %d", invocation.GasPrice, params.MinGasPrice), nil
	}
	if !ic.gas.charge(invocationGas) {
		return errOutOfGas, nil
	}

	var code []byte
	export := callExport
	switch invocation.Kind {
	case contracts.InvocationKindCreate:
		_, exists, err := e.state.code(invocation.Contract)
		if err != nil {
			return nil, err
		}
		if exists {
			return errors.Errorf("contract %s already exists", invocation.Contract), nil
		}
		creationGas, ok := gasCost(createGasPerCodeByte, uint64(len(invocation.Data)))
		if !ok || !ic.gas.charge(creationGas) {
			return errOutOfGas, nil
		}
		code = invocation.Data
		err = e.state.setCode(invocation.Contract, code)
		if err != nil {
			return nil, err
		}
		ic.input = nil
		export = createExport

	case contracts.InvocationKindCall:
		var exists bool
		code, exists, err = e.state.code(invocation.Contract)
		if err != nil {
			return nil, err
		}
		if !exists {
			return errors.Errorf("contract %s does not exist", invocation.Contract), nil
		}
	}

	if invocation.Value > 0 {
		balance, err := e.state.balance(invocation.Contract)
		if err != nil {
			return nil, err
		}
		newBalance, ok := addAmounts(balance, invocation.Value)
		if !ok {
			return errors.Errorf("balance of %s overflows", invocation.Contract), nil
		}
		err = e.state.setBalance(invocation.Contract, newBalance)
		if err != nil {
			return nil, err
		}
	}

	module, err := e.factory.instantiate(ctx, code)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrapf(ErrExecutionAborted, "%s", ctx.Err())
		}
		if errors.Is(err, errInvalidModule) {
			return err, nil
		}
		return nil, err
	}
	defer func() {
		closeErr := module.Close(context.Background())
		if closeErr != nil {
			log.Warnf("Failed closing contract instance: %s", closeErr)
		}
	}()

	function := module.ExportedFunction(export)
	if function == nil {
		if invocation.Kind == contracts.InvocationKindCreate {
			// Contracts without an initializer are deployed as-is
			return nil, nil
		}
		return errors.Errorf("contract %s does not export %s", invocation.Contract, export), nil
	}

	_, callErr := function.Call(withInvocationContext(ctx, ic))
	if ctx.Err() != nil {
		return nil, errors.Wrapf(ErrExecutionAborted, "transaction %s at height %d: %s",
			consensushashing.TransactionID(txContext.Transaction), txContext.Height, ctx.Err())
	}
	if ic.fault != nil {
		return nil, ic.fault
	}
	if callErr != nil {
		return callErr, nil
	}
	return nil, nil
}
