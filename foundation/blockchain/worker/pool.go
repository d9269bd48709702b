package worker

// poolMaintenanceOperations handles periodic mempool upkeep: sweeping
// stuck transactions and re-announcing fluff-phase transactions that
// are due for relay.
func (w *Worker) poolMaintenanceOperations() {
	w.evHandler("worker: poolMaintenanceOperations: G started")
	defer w.evHandler("worker: poolMaintenanceOperations: G completed")

	for {
		select {
		case <-w.poolTicker.C:
			if !w.isShutdown() {
				w.runPoolMaintenanceOperation()
			}
		case <-w.shut:
			w.evHandler("worker: poolMaintenanceOperations: received shut signal")
			return
		}
	}
}

// runPoolMaintenanceOperation sweeps stuck transactions from the pool
// and re-shares any fluff-phase transaction that is due for relay.
func (w *Worker) runPoolMaintenanceOperation() {
	w.evHandler("worker: runPoolMaintenanceOperation: started")
	defer w.evHandler("worker: runPoolMaintenanceOperation: completed")

	if removed := w.state.MaintainMempool(); removed > 0 {
		w.evHandler("worker: runPoolMaintenanceOperation: swept %d stuck transactions", removed)
	}

	for _, tx := range w.state.TxsDueForRelay() {
		w.SignalShareTx(tx)
	}
}
