package bus

import (
	"main/internal/model"
)

// Topic builders for the standard message taxonomy. Keeping these in one
// place prevents publisher/subscriber drift on topic spelling.

func TopicQuotes(id model.InstrumentID) string {
	return "data.quotes." + string(id.Venue) + "." + string(id.Symbol)
}

func TopicTrades(id model.InstrumentID) string {
	return "data.trades." + string(id.Venue) + "." + string(id.Symbol)
}

func TopicBookDeltas(id model.InstrumentID) string {
	return "data.book.deltas." + string(id.Venue) + "." + string(id.Symbol)
}

func TopicBookDepth(id model.InstrumentID) string {
	return "data.book.depth." + string(id.Venue) + "." + string(id.Symbol)
}

func TopicBookSnapshots(id model.InstrumentID) string {
	return "data.book.snapshots." + string(id.Venue) + "." + string(id.Symbol)
}

func TopicMarkPrices(id model.InstrumentID) string {
	return "data.mark_prices." + string(id.Venue) + "." + string(id.Symbol)
}

func TopicIndexPrices(id model.InstrumentID) string {
	return "data.index_prices." + string(id.Venue) + "." + string(id.Symbol)
}

func TopicInstrumentStatus(id model.InstrumentID) string {
	return "data.status." + string(id.Venue) + "." + string(id.Symbol)
}

func TopicInstrument(id model.InstrumentID) string {
	return "data.instrument." + string(id.Venue) + "." + string(id.Symbol)
}

func TopicBars(barType string) string {
	return "data.bars." + barType
}

func TopicOrderEvents(strategyID model.StrategyID, clientOrderID model.ClientOrderID) string {
	return "events.order." + string(strategyID) + "." + string(clientOrderID)
}

func TopicPositionEvents(strategyID model.StrategyID, id model.InstrumentID) string {
	return "events.position." + string(strategyID) + "." + id.String()
}

func TopicAccountEvents(accountID model.AccountID) string {
	return "events.account." + string(accountID)
}

func TopicTradingCommands(clientID model.ClientID) string {
	return "commands.trading." + string(clientID)
}

func TopicComponentState(componentID model.ComponentID) string {
	return "system.state." + string(componentID)
}
